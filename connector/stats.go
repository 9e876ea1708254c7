package connector

import "database/sql"

// ConnectionStats represents database connection pool statistics.
type ConnectionStats struct {
	OpenConnections int
	InUse           int
	Idle            int
}

// StatsFromDB converts database/sql pool statistics.
func StatsFromDB(s sql.DBStats) ConnectionStats {
	return ConnectionStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
	}
}

// Add sums two snapshots.
func (s ConnectionStats) Add(o ConnectionStats) ConnectionStats {
	return ConnectionStats{
		OpenConnections: s.OpenConnections + o.OpenConnections,
		InUse:           s.InUse + o.InUse,
		Idle:            s.Idle + o.Idle,
	}
}
