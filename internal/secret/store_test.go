package secret

import (
	"errors"
	"testing"

	"reports/internal/domain"
)

type mapStore map[string][]byte

func (m mapStore) Set(key string, value []byte) error { m[key] = value; return nil }
func (m mapStore) Get(key string) ([]byte, error)     { return m[key], nil }
func (m mapStore) Delete(key string) error            { delete(m, key); return nil }

type failingStore struct{ mapStore }

func (failingStore) Get(string) ([]byte, error) { return nil, errors.New("locked") }

func TestFillPassword(t *testing.T) {
	s := mapStore{}
	_ = s.Set(ConnectionKey("warehouse"), []byte("hunter2"))

	conn, err := FillPassword(s, domain.Connection{Name: "warehouse"})
	if err != nil || conn.Password != "hunter2" {
		t.Errorf("FillPassword = %q, %v", conn.Password, err)
	}

	conn, _ = FillPassword(s, domain.Connection{Name: "warehouse", Password: "inline"})
	if conn.Password != "inline" {
		t.Errorf("config password overridden: %q", conn.Password)
	}

	conn, err = FillPassword(s, domain.Connection{Name: "other"})
	if err != nil || conn.Password != "" {
		t.Errorf("missing secret = %q, %v", conn.Password, err)
	}

	if _, err := FillPassword(failingStore{}, domain.Connection{Name: "warehouse"}); err == nil {
		t.Error("store error should surface")
	}
	if conn, err := FillPassword(nil, domain.Connection{Name: "x"}); err != nil || conn.Password != "" {
		t.Errorf("nil store = %+v, %v", conn, err)
	}
}
