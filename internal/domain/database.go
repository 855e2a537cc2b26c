package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// DatabaseDriver represents the type of database engine.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// Connection describes an external database that can fill table blocks.
// Connections are declared in the config file by name.
type Connection struct {
	Name     string            `json:"name" yaml:"-"`
	Driver   DatabaseDriver    `json:"driver" yaml:"driver"`
	Host     string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int               `json:"port,omitempty" yaml:"port,omitempty"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty"`
	Username string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password string            `json:"-" yaml:"password,omitempty"`
	SSLMode  string            `json:"sslMode,omitempty" yaml:"ssl_mode,omitempty"`
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"` // sqlite file
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// DSN builds the driver-specific data source name.
func (c Connection) DSN() (string, error) {
	switch c.Driver {
	case DatabaseDriverPostgres:
		u := &url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", c.Host, c.port(5432)),
			Path:   "/" + c.Database,
		}
		if c.Username != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		}
		q := url.Values{}
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		q.Set("sslmode", sslMode)
		for k, v := range c.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil

	case DatabaseDriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.Username, c.Password, c.Host, c.port(3306), c.Database)
		params := []string{"parseTime=true"}
		for k, v := range c.Options {
			params = append(params, k+"="+url.QueryEscape(v))
		}
		return dsn + "?" + strings.Join(params, "&"), nil

	case DatabaseDriverSQLite:
		path := c.Path
		if path == "" {
			path = c.Host
		}
		if path == "" {
			return "", fmt.Errorf("sqlite connection %q: path is required", c.Name)
		}
		return "file:" + path + "?mode=ro", nil

	case DatabaseDriverMongoDB:
		u := &url.URL{
			Scheme: "mongodb",
			Host:   fmt.Sprintf("%s:%d", c.Host, c.port(27017)),
			Path:   "/",
		}
		if c.Username != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		}
		q := url.Values{}
		for k, v := range c.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return "", fmt.Errorf("unsupported driver: %s", c.Driver)
}

func (c Connection) port(def int) int {
	if c.Port == 0 {
		return def
	}
	return c.Port
}
