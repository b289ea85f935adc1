package db

const (
	VAULT_DB_FILE = "vault.db"
	MEMORY_DSN    = ":memory:"

	// singleton rows (params, ledger state) always use this primary key
	SINGLETON_ID = 1

	ROLE_GRANT_ACTIVE  = "active"
	ROLE_GRANT_REVOKED = "revoked"
)
