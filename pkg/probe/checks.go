package probe

import (
	"context"
	"fmt"
	"os"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Database checks that the settings database answers.
func Database(p Pinger) Probe {
	return Probe{
		Name:     "database",
		Critical: true,
		Check: func(ctx context.Context) error {
			if err := p.PingContext(ctx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			return nil
		},
	}
}

// File checks that path exists and is a regular file.
func File(name, path string, critical bool) Probe {
	return Probe{
		Name:     name,
		Critical: critical,
		Check: func(context.Context) error {
			if path == "" {
				return fmt.Errorf("no path configured")
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("%s is not a regular file", path)
			}
			return nil
		},
	}
}

// Dir checks that path is a directory. A missing directory passes when optional is set.
func Dir(name, path string, optional bool) Probe {
	return Probe{
		Name: name,
		Check: func(context.Context) error {
			info, err := os.Stat(path)
			if os.IsNotExist(err) && optional {
				return nil
			}
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", path)
			}
			return nil
		},
	}
}
