package staticdata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// handleMemcachedConn speaks just enough of the text protocol for the
// store's command set: get, set, add, delete and flush_all.
func handleMemcachedConn(conn net.Conn, data map[string][]byte) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "get":
			if len(parts) < 2 {
				continue
			}
			if v, ok := data[parts[1]]; ok {
				fmt.Fprintf(w, "VALUE %s 0 %d\r\n", parts[1], len(v))
				w.Write(v)
				w.WriteString("\r\n")
			}
			w.WriteString("END\r\n")
		case "set", "add":
			// <cmd> <key> <flags> <exptime> <bytes>
			if len(parts) < 5 {
				continue
			}
			n, _ := strconv.Atoi(parts[4])
			buf := make([]byte, n)
			if _, err := io.ReadFull(r, buf); err != nil {
				return
			}
			r.ReadString('\n')
			if parts[0] == "add" {
				if _, exists := data[parts[1]]; exists {
					w.WriteString("NOT_STORED\r\n")
					w.Flush()
					continue
				}
			}
			data[parts[1]] = buf
			w.WriteString("STORED\r\n")
		case "delete":
			if len(parts) < 2 {
				continue
			}
			delete(data, parts[1])
			w.WriteString("DELETED\r\n")
		case "flush_all":
			for k := range data {
				delete(data, k)
			}
			w.WriteString("OK\r\n")
		}
		w.Flush()
	}
}

// memcachedInMemoryDial spins up a handler per connection using a shared map.
func memcachedInMemoryDial(data map[string][]byte) func(context.Context, string, string) (net.Conn, error) {
	return func(_ context.Context, _, _ string) (net.Conn, error) {
		server, client := net.Pipe()
		go handleMemcachedConn(server, data)
		return client, nil
	}
}

func TestMemcachedStoreAgainstFakeServer(t *testing.T) {
	data := map[string][]byte{}
	orig := dialMemcached
	dialMemcached = memcachedInMemoryDial(data)
	defer func() { dialMemcached = orig }()

	ctx := context.Background()
	store := newMemcachedStore([]string{"ignored"}, time.Second, "pfx")
	if store.Driver() != DriverMemcached {
		t.Fatalf("driver = %s", store.Driver())
	}

	if err := store.Set(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "b", []byte("2"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, exists := data["pfx:a"]; !exists {
		t.Fatalf("expected prefixed key pfx:a on the wire")
	}
	body, ok, err := store.Get(ctx, "a")
	if err != nil || !ok || string(body) != "1" {
		t.Fatalf("get failed: ok=%v err=%v val=%s", ok, err, string(body))
	}
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss: ok=%v err=%v", ok, err)
	}

	if created, err := store.Add(ctx, "a", []byte("x"), 0); err != nil || created {
		t.Fatalf("add duplicate unexpected: created=%v err=%v", created, err)
	}
	if created, err := store.Add(ctx, "fresh", []byte("v"), 0); err != nil || !created {
		t.Fatalf("add fresh failed: created=%v err=%v", created, err)
	}

	if err := store.Delete(ctx, "fresh"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.DeleteMany(ctx, "a", "b"); err != nil {
		t.Fatalf("delete many failed: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty server, have %d keys", len(data))
	}

	if err := store.Set(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("flush left %d keys behind", len(data))
	}
}

func TestMemcachedStoreReusesPooledConnections(t *testing.T) {
	data := map[string][]byte{}
	var dials int32
	orig := dialMemcached
	inner := memcachedInMemoryDial(data)
	dialMemcached = func(ctx context.Context, network, addr string) (net.Conn, error) {
		atomic.AddInt32(&dials, 1)
		return inner(ctx, network, addr)
	}
	defer func() { dialMemcached = orig }()

	ctx := context.Background()
	store := newMemcachedStore([]string{"ignored"}, time.Second, "p")
	for i := 0; i < 5; i++ {
		if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&dials); got != 1 {
		t.Fatalf("expected one dial for sequential ops, got %d", got)
	}
}

func TestMemcachedStoreDefaults(t *testing.T) {
	var dialedAddr string
	orig := dialMemcached
	dialMemcached = func(_ context.Context, _, addr string) (net.Conn, error) {
		dialedAddr = addr
		return nil, fmt.Errorf("refused")
	}
	defer func() { dialMemcached = orig }()

	store := newMemcachedStore(nil, 0, "")
	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected dial error")
	}
	if dialedAddr != "127.0.0.1:11211" {
		t.Fatalf("default addr = %s", dialedAddr)
	}
	ms := store.(*memcachedStore)
	if ms.prefix != defaultStorePrefix {
		t.Fatalf("default prefix = %s", ms.prefix)
	}
}

func TestMemcachedStoreKey(t *testing.T) {
	ms := &memcachedStore{prefix: ""}
	if ms.storeKey("k") != "k" {
		t.Fatalf("expected raw key when prefix empty")
	}
	ms.prefix = "p"
	if ms.storeKey("k") != "p:k" {
		t.Fatalf("unexpected key %s", ms.storeKey("k"))
	}
}

func TestMemcachedExptime(t *testing.T) {
	var recorded []string
	orig := dialMemcached
	dialMemcached = func(context.Context, string, string) (net.Conn, error) {
		server, client := net.Pipe()
		go func() {
			defer server.Close()
			r := bufio.NewReader(server)
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				parts := strings.Fields(strings.TrimSpace(line))
				if len(parts) >= 5 {
					recorded = append(recorded, parts[3])
					n, _ := strconv.Atoi(parts[4])
					buf := make([]byte, n)
					io.ReadFull(r, buf)
					r.ReadString('\n')
				}
				if _, err := server.Write([]byte("STORED\r\n")); err != nil {
					return
				}
			}
		}()
		return client, nil
	}
	defer func() { dialMemcached = orig }()

	ctx := context.Background()

	// Zero ttl with no default keeps entries until memcached evicts them.
	never := newMemcachedStore([]string{"x"}, 0, "p")
	if err := never.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	store := newMemcachedStore([]string{"x"}, time.Minute, "p")
	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v"), 500*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v"), 2*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	want := []string{"0", "60", "1", "2"}
	if len(recorded) != len(want) {
		t.Fatalf("recorded %d exptimes, want %d", len(recorded), len(want))
	}
	for i, exp := range want {
		if recorded[i] != exp {
			t.Fatalf("exptime[%d] = %s, want %s", i, recorded[i], exp)
		}
	}
}
