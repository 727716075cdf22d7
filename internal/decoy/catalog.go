// Package decoy holds the static content served to attackers: fake database
// catalogs, fake shell output, and fake web pages. Everything here is
// process-wide constant.
package decoy

// Databases is what SHOW DATABASES returns.
var Databases = []string{
	"information_schema", "mysql", "performance_schema", "sys",
	"test", "wordpress", "production", "users_db",
}

// Tables lists the fake tables per database.
var Tables = map[string][]string{
	"mysql":      {"user", "db", "tables_priv", "columns_priv", "proc_priv"},
	"test":       {"users", "products", "orders", "customers", "invoices"},
	"wordpress":  {"wp_users", "wp_posts", "wp_options", "wp_comments", "wp_postmeta"},
	"production": {"accounts", "transactions", "payments", "sessions"},
	"users_db":   {"user_credentials", "user_profiles", "user_sessions"},
}

// TablesFor returns the table list for a database, falling back to the
// "test" catalog for databases the attacker invents.
func TablesFor(db string) []string {
	if tables, ok := Tables[db]; ok {
		return tables
	}
	return Tables["test"]
}

// Shell banner written after a successful shell request.
const (
	ShellWelcome   = "Welcome to Ubuntu 22.04.3 LTS (GNU/Linux 5.15.0-91-generic x86_64)\r\n\r\n"
	ShellLastLogin = "Last login: Mon Jan  6 14:32:18 2025 from 192.168.1.100\r\n"
	ShellPrompt    = "honeypot@ubuntu:~$ "
)

// ShellResponses maps the first command token to its canned output.
// "uname -a" is the one two-token key.
var ShellResponses = map[string]string{
	"ls":       "Desktop  Documents  Downloads  Music  Pictures  Public  Templates  Videos",
	"whoami":   "honeypot",
	"pwd":      "/home/honeypot",
	"id":       "uid=1000(honeypot) gid=1000(honeypot) groups=1000(honeypot),4(adm),24(cdrom),27(sudo),30(dip),46(plugdev),120(lpadmin),132(lxd),133(sambashare)",
	"uname -a": "Linux ubuntu 5.15.0-91-generic #101-Ubuntu SMP Tue Nov 14 13:30:08 UTC 2023 x86_64 x86_64 x86_64 GNU/Linux",
}

// MySQL identity strings returned by meta-queries.
const (
	MySQLCurrentUser = "root@localhost"
)
