// Package orchestrator управляет жизненным циклом магазинов.
//
// Orchestrator отвечает за:
//   - Контроль допуска (глобальный лимит, лимит очереди, лимит параллельности)
//   - FIFO-очередь и слоты исполнения (Scheduler)
//   - Workflow развёртывания и удаления поверх Backend
//   - Общий таймаут развёртывания с очисткой ресурсов
//   - Восстановление задач, прерванных рестартом процесса
//
// Очередь и слоты живут только в памяти и не переживают рестарт.
package orchestrator
