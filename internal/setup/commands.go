// Package setup описывает настройку WooCommerce внутри развёрнутого магазина:
// список WP-CLI команд и генерацию секретов.
package setup

import (
	"fmt"
	"strings"
)

const wpCLIURL = "https://raw.githubusercontent.com/wp-cli/builds/gh-pages/phar/wp-cli.phar"

// Command — одна команда настройки.
type Command struct {
	// Name — человекочитаемое имя (пишется в журнал событий).
	Name string

	// Cmd — shell-команда для /bin/sh -c.
	Cmd string
}

// Params — параметры настройки магазина.
type Params struct {
	StoreURL      string
	StoreName     string
	AdminUser     string
	AdminPassword string
	AdminEmail    string

	// Country и Currency — региональные настройки WooCommerce.
	Country  string
	Currency string

	// SampleCatalog — создавать ли демонстрационные товары.
	SampleCatalog bool
}

func (p *Params) setDefaults() {
	if p.AdminUser == "" {
		p.AdminUser = "admin"
	}
	if p.AdminEmail == "" {
		p.AdminEmail = "admin@store.local"
	}
	if p.Country == "" {
		p.Country = "US"
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
}

// Product — демонстрационный товар.
type Product struct {
	Name         string
	RegularPrice int
	SalePrice    int
	Description  string
}

// SampleProducts — каталог, которым заполняется новый магазин.
var SampleProducts = []Product{
	{Name: "Wireless Headphones", RegularPrice: 8299, SalePrice: 6999, Description: "Noise-cancelling headphones with 30 hour battery."},
	{Name: "Bluetooth Speaker", RegularPrice: 4149, Description: "Portable waterproof speaker with 360 degree sound."},
	{Name: "USB-C Cable 6ft", RegularPrice: 829, Description: "Fast charging USB-C cable with 100W power delivery."},
	{Name: "Fitness Smartwatch", RegularPrice: 12449, SalePrice: 9999, Description: "Smartwatch with GPS and heart rate monitor."},
	{Name: "Mechanical Keyboard", RegularPrice: 6639, SalePrice: 5499, Description: "RGB mechanical keyboard with programmable keys."},
	{Name: "Wireless Mouse", RegularPrice: 2489, Description: "Ergonomic wireless mouse with adjustable DPI."},
}

// WooCommerce возвращает упорядоченный список команд настройки магазина.
// Команды не зависят друг от друга настолько, чтобы ошибка одной
// прерывала остальные.
func WooCommerce(p Params) []Command {
	p.setDefaults()

	wp := func(args string) string { return "wp " + args + " --allow-root" }

	cmds := []Command{
		{
			Name: "Install WP-CLI",
			Cmd:  fmt.Sprintf("command -v wp || (curl -sSO %s && chmod +x wp-cli.phar && mv wp-cli.phar /usr/local/bin/wp)", wpCLIURL),
		},
		{
			Name: "Install WordPress",
			Cmd: wp(fmt.Sprintf("core install --url=%s --title=%s --admin_user=%s --admin_password=%s --admin_email=%s --skip-email",
				Quote(p.StoreURL), Quote(p.StoreName), Quote(p.AdminUser), Quote(p.AdminPassword), Quote(p.AdminEmail))),
		},
		{Name: "Clear stuck update locks", Cmd: wp("option delete core_updater.lock") + " || true"},
		{Name: "Update WordPress database", Cmd: wp("core update-db")},
		{Name: "Install WooCommerce", Cmd: wp("plugin install woocommerce --activate")},
		{
			Name: "Set site URLs",
			Cmd:  wp("option update siteurl "+Quote(p.StoreURL)) + " && " + wp("option update home "+Quote(p.StoreURL)),
		},
		{Name: "Install Storefront theme", Cmd: wp("theme install storefront --activate")},
		{Name: "Disable coming soon mode", Cmd: wp(`option update woocommerce_coming_soon "no"`)},
		{Name: "Create WooCommerce pages", Cmd: wp("wc tool run install_pages --user=" + Quote(p.AdminUser))},
		{Name: "Set permalink structure", Cmd: wp(`rewrite structure "/%postname%/"`)},
		{
			Name: "Skip onboarding",
			Cmd: wp(`option update woocommerce_onboarding_profile '{"skipped":true,"completed":true}' --format=json`) +
				" && " + wp(`option update woocommerce_task_list_hidden "yes"`) +
				" && " + wp(`option update woocommerce_setup_wizard_ran "yes"`),
		},
		{Name: "Set store country", Cmd: wp("option update woocommerce_default_country " + Quote(p.Country))},
		{Name: "Set store currency", Cmd: wp("option update woocommerce_currency " + Quote(p.Currency))},
		{
			Name: "Enable cash on delivery",
			Cmd:  wp(`option update woocommerce_cod_settings '{"enabled":"yes","title":"Cash on Delivery","enable_for_methods":[],"enable_for_virtual":"yes"}' --format=json`),
		},
	}

	if p.SampleCatalog {
		for _, prod := range SampleProducts {
			cmds = append(cmds, Command{
				Name: "Create product: " + prod.Name,
				Cmd:  wp(productArgs(prod, p.AdminUser)),
			})
		}
	}

	cmds = append(cmds,
		Command{Name: "Flush rewrite rules", Cmd: wp("rewrite flush")},
		Command{Name: "Flush cache", Cmd: wp("cache flush") + " || true"},
		Command{Name: "Delete transients", Cmd: wp("transient delete --all") + " || true"},
	)
	return cmds
}

func productArgs(prod Product, user string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "wc product create --user=%s --name=%s --type=simple --regular_price=%d",
		Quote(user), Quote(prod.Name), prod.RegularPrice)
	if prod.SalePrice > 0 {
		fmt.Fprintf(&b, " --sale_price=%d", prod.SalePrice)
	}
	fmt.Fprintf(&b, " --description=%s --status=publish --catalog_visibility=visible", Quote(prod.Description))
	return b.String()
}

// Quote экранирует строку для /bin/sh в одинарных кавычках.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
