package dialect

// TiDB speaks the MySQL dialect.
type TiDB struct {
	*MySQL
}

func NewTiDBDialect() Dialect {
	return &TiDB{MySQL: NewMySQLDialect().(*MySQL)}
}

func (*TiDB) Name() string { return "tidb" }
