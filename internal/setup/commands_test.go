package setup

import (
	"strings"
	"testing"
)

// --- Command list Tests ---

func TestWooCommerce_Order(t *testing.T) {
	cmds := WooCommerce(Params{
		StoreURL:      "http://store-a.10.0.0.1.nip.io",
		StoreName:     "Demo",
		AdminPassword: "pw",
	})

	if len(cmds) == 0 {
		t.Fatal("expected commands")
	}
	if cmds[0].Name != "Install WP-CLI" {
		t.Errorf("first command = %q, want WP-CLI install", cmds[0].Name)
	}
	if cmds[1].Name != "Install WordPress" {
		t.Errorf("second command = %q, want WordPress install", cmds[1].Name)
	}
	if last := cmds[len(cmds)-1]; last.Name != "Delete transients" {
		t.Errorf("last command = %q", last.Name)
	}
}

func TestWooCommerce_CoreInstallUsesCredentials(t *testing.T) {
	cmds := WooCommerce(Params{
		StoreURL:      "http://store-a.example",
		StoreName:     "Bob's Shop",
		AdminUser:     "owner",
		AdminPassword: "s3cret",
		AdminEmail:    "owner@example.com",
	})

	install := cmds[1].Cmd
	for _, want := range []string{
		"--url='http://store-a.example'",
		`--title='Bob'\''s Shop'`,
		"--admin_user='owner'",
		"--admin_password='s3cret'",
		"--admin_email='owner@example.com'",
		"--allow-root",
	} {
		if !strings.Contains(install, want) {
			t.Errorf("core install command missing %q: %s", want, install)
		}
	}
}

func TestWooCommerce_SampleCatalog(t *testing.T) {
	without := WooCommerce(Params{StoreURL: "http://x"})
	with := WooCommerce(Params{StoreURL: "http://x", SampleCatalog: true})

	if got := len(with) - len(without); got != len(SampleProducts) {
		t.Errorf("catalog adds %d commands, want %d", got, len(SampleProducts))
	}

	var found bool
	for _, c := range with {
		if strings.Contains(c.Cmd, "--sale_price=6999") {
			found = true
		}
	}
	if !found {
		t.Error("expected sale price for discounted product")
	}
}

func TestWooCommerce_Defaults(t *testing.T) {
	cmds := WooCommerce(Params{StoreURL: "http://x"})

	var currency string
	for _, c := range cmds {
		if c.Name == "Set store currency" {
			currency = c.Cmd
		}
	}
	if !strings.Contains(currency, "'USD'") {
		t.Errorf("default currency not applied: %s", currency)
	}
}

// --- Secrets Tests ---

func TestGeneratePassword_Unique(t *testing.T) {
	a, err := GeneratePassword()
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	b, _ := GeneratePassword()

	if a == b {
		t.Error("passwords must differ")
	}
	if len(a) < 40 {
		t.Errorf("password too short: %d", len(a))
	}
}

func TestNewDeployParams(t *testing.T) {
	p, err := NewDeployParams("store-a", "Demo", "store-a.nip.io")
	if err != nil {
		t.Fatalf("NewDeployParams: %v", err)
	}
	if p.MySQLPassword == "" || p.MySQLRootPassword == "" || p.AdminPassword == "" {
		t.Error("all secrets must be generated")
	}
	if p.MySQLPassword == p.MySQLRootPassword {
		t.Error("secrets must be distinct")
	}
	if p.Hostname != "store-a.nip.io" {
		t.Errorf("Hostname = %q", p.Hostname)
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("it's"); got != `'it'\''s'` {
		t.Errorf("Quote = %s", got)
	}
}
