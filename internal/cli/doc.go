// Package cli реализует инструмент командной строки Vitrina.
//
// # Обзор
//
// CLI работает с Vitrina API по HTTP и не импортирует внутренние
// пакеты системы. Типы ответов дублируются из api/dto.go.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Vitrina API. Разбирает обёртки DataResponse,
// ListResponse и ErrorResponse; ошибки сервера возвращаются как *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	stores, err := client.ListStores(cli.ListStoresOpts{})
//
// ## Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные выводятся в stdout, сообщения (Success/Error) в stderr:
//
//	vitrina store list --json | jq .
//
// ## Commands
//
//   - store: list, create, show, delete
//   - events
//   - metrics
//
// Каждая группа создаётся фабричной функцией (NewStoreCmd и т.д.),
// принимающей clientFn и outputFn. Замыкания создают Client и Output
// после разбора PersistentFlags.
package cli
