//go:build benchrender
// +build benchrender

package bench

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/goforj/staticdata"
	"github.com/goforj/staticdata/driver/mysqldata"
	"github.com/goforj/staticdata/driver/postgresdata"
	"github.com/goforj/staticdata/driver/sqlitedata"
	"github.com/redis/go-redis/v9"
)

const (
	benchStart = "<!-- bench:embed:start -->"
	benchEnd   = "<!-- bench:embed:end -->"
)

type benchRow struct {
	Driver   string
	Op       string
	NsOp     float64
	BytesOp  float64
	AllocsOp float64
	Ops      int64
}

// RenderBenchmarks is invoked by `go test -tags benchrender ./docs/bench` via TestRenderBenchmarks.
func RenderBenchmarks() {
	ctx := context.Background()
	rows := runBenchmarks(ctx)

	table := renderTable(rows)

	readmePath := filepath.Join(findRoot(), "README.md")
	data, err := os.ReadFile(readmePath)
	if err != nil {
		panic(err)
	}
	out := injectTable(string(data), table)
	if err := os.WriteFile(readmePath, []byte(out), 0o644); err != nil {
		panic(err)
	}
	fmt.Println("✔ Benchmarks table updated")
}

func runBenchmarks(ctx context.Context) map[string][]benchRow {
	drivers := []string{"memory", "file", "redis", "memcached", "dynamodb", "sql_postgres", "sql_mysql", "sql_sqlite"}
	ops := map[string]func(context.Context, *staticdata.Fetcher){
		"ResolveHit":   doResolveHit,
		"ResolveBytes": doResolveBytes,
		"ResolveMiss":  doResolveMiss,
		"Invalidate":   doInvalidate,
		"BuildLock":    doBuildLock,
	}

	results := make(map[string][]benchRow)

	for opName, fn := range ops {
		for _, d := range drivers {
			f, cleanup, ok := buildFetcher(ctx, d)
			if !ok {
				continue
			}
			if cleanup != nil {
				defer cleanup()
			}
			ns, bytesOp, allocsOp, ops := benchOp(ctx, f, fn)
			results[opName] = append(results[opName], benchRow{Driver: d, Op: opName, NsOp: ns, BytesOp: bytesOp, AllocsOp: allocsOp, Ops: ops})
		}
	}
	return results
}

func benchOp(ctx context.Context, f *staticdata.Fetcher, fn func(context.Context, *staticdata.Fetcher)) (nsPerOp, bytesPerOp, allocsPerOp float64, ops int64) {
	// Use testing.Benchmark to gather ns/op and allocation metrics.
	res := testing.Benchmark(func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			fn(ctx, f)
		}
	})
	return float64(res.NsPerOp()), float64(res.AllocedBytesPerOp()), float64(res.AllocsPerOp()), int64(res.N)
}

type benchPage struct {
	Title string `json:"title"`
}

func benchPageFactory(context.Context, string, string) (benchPage, error) {
	return benchPage{Title: "Benchmark"}, nil
}

func benchRawFactory(context.Context, string, string) ([]byte, error) {
	return []byte(`{"title":"Benchmark"}`), nil
}

func doResolveHit(ctx context.Context, f *staticdata.Fetcher) {
	_, _ = staticdata.Resolve(ctx, f, "bench-page", "1", benchPageFactory)
}

func doResolveBytes(ctx context.Context, f *staticdata.Fetcher) {
	_, _ = staticdata.ResolveBytes(ctx, f, "bench-raw", "1", benchRawFactory)
}

func doResolveMiss(ctx context.Context, f *staticdata.Fetcher) {
	_ = f.InvalidateCtx(ctx, "bench-cold", "1")
	_, _ = staticdata.Resolve(ctx, f, "bench-cold", "1", benchPageFactory)
}

func doInvalidate(ctx context.Context, f *staticdata.Fetcher) {
	_ = f.InvalidateCtx(ctx, "bench-gone", "1")
}

func doBuildLock(ctx context.Context, f *staticdata.Fetcher) {
	lock := f.NewBuildLock("bench", time.Minute)
	if locked, _ := lock.AcquireCtx(ctx); locked {
		_ = lock.ReleaseCtx(ctx)
	}
}

func renderTable(byOp map[string][]benchRow) string {
	if len(byOp) == 0 {
		return ""
	}

	ops := []string{"ResolveHit", "ResolveBytes", "ResolveMiss", "Invalidate", "BuildLock"}

	// Build lookup op -> driver -> row
	lookup := make(map[string]map[string]benchRow)
	for op, rows := range byOp {
		for _, r := range rows {
			if lookup[op] == nil {
				lookup[op] = make(map[string]benchRow)
			}
			lookup[op][r.Driver] = r
		}
	}

	var buf bytes.Buffer
	buf.WriteString(benchStart + "\n\n")
	buf.WriteString("| Driver | Op | N | ns/op | B/op | allocs/op |\n")
	buf.WriteString("|:------|:--:|---:|-----:|-----:|---------:|\n")
	for _, op := range ops {
		driverRows := lookup[op]
		if len(driverRows) == 0 {
			continue
		}
		var drivers []string
		for d := range driverRows {
			drivers = append(drivers, d)
		}
		sort.Strings(drivers)
		for _, d := range drivers {
			row := driverRows[d]
			buf.WriteString(fmt.Sprintf("| %s | %s | %d | %.0f | %.0f | %.0f |\n", d, op, row.Ops, row.NsOp, row.BytesOp, row.AllocsOp))
		}
	}
	buf.WriteString("\n" + benchEnd + "\n")
	return buf.String()
}

func injectTable(readme, table string) string {
	start := strings.Index(readme, benchStart)
	end := strings.Index(readme, benchEnd)
	if start == -1 || end == -1 || end < start {
		// append if anchors missing
		return readme + table
	}
	prefix := strings.TrimRight(readme[:start], "\n") + "\n\n"
	suffix := "\n" + strings.TrimLeft(readme[end+len(benchEnd):], "\n")

	var out bytes.Buffer
	out.WriteString(prefix)
	out.WriteString(table)
	out.WriteString(suffix)
	return out.String()
}

// Simplified builder: uses env when present, otherwise best-effort testcontainers for redis/memcached/postgres/mysql.
func buildFetcher(ctx context.Context, name string) (*staticdata.Fetcher, func(), bool) {
	switch name {
	case "memory":
		return staticdata.New(staticdata.NewMemoryStore(ctx)), func() {}, true
	case "file":
		dir, _ := os.MkdirTemp("", "staticdata-bench-file-*")
		return staticdata.New(staticdata.NewFileStore(ctx, dir)), func() { _ = os.RemoveAll(dir) }, true
	case "redis":
		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			client := redis.NewClient(&redis.Options{Addr: addr})
			store := staticdata.NewRedisStore(ctx, client)
			return staticdata.New(store), func() { _ = client.Close() }, true
		}
		if f, cleanup, err := startRedisRender(ctx); err == nil {
			return f, cleanup, true
		} else {
			fmt.Fprintln(os.Stderr, "benchrender: skip redis:", err)
		}
	case "memcached":
		if addr := os.Getenv("MEMCACHED_ADDR"); addr != "" {
			store := staticdata.NewMemcachedStore(ctx, []string{addr})
			return staticdata.New(store), func() {}, true
		}
		if f, cleanup, err := startMemcachedRender(ctx); err == nil {
			return f, cleanup, true
		} else {
			fmt.Fprintln(os.Stderr, "benchrender: skip memcached:", err)
		}
	case "dynamodb":
		if endpoint := os.Getenv("DYNAMO_ENDPOINT"); endpoint != "" {
			store := staticdata.NewStore(ctx, staticdata.StoreConfig{Driver: staticdata.DriverDynamo, DynamoEndpoint: endpoint, DynamoTable: "bench_payloads", DynamoRegion: "us-east-1"})
			return staticdata.New(store), func() {}, true
		}
		if f, cleanup, err := startDynamoRender(ctx); err == nil {
			return f, cleanup, true
		} else {
			fmt.Fprintln(os.Stderr, "benchrender: skip dynamodb:", err)
		}
	case "sql_postgres":
		if dsn := os.Getenv("BENCH_PG_DSN"); dsn != "" {
			store, err := postgresdata.New(ctx, postgresdata.Config{DSN: dsn, Table: "bench_payloads"})
			if err == nil {
				return staticdata.New(store), func() {}, true
			}
			fmt.Fprintln(os.Stderr, "benchrender: skip postgres:", err)
			break
		}
		if f, cleanup, err := startPostgresRender(ctx); err == nil {
			return f, cleanup, true
		} else {
			fmt.Fprintln(os.Stderr, "benchrender: skip postgres:", err)
		}
	case "sql_mysql":
		if dsn := os.Getenv("BENCH_MYSQL_DSN"); dsn != "" {
			store, err := mysqldata.New(ctx, mysqldata.Config{DSN: dsn, Table: "bench_payloads"})
			if err == nil {
				return staticdata.New(store), func() {}, true
			}
			fmt.Fprintln(os.Stderr, "benchrender: skip mysql:", err)
			break
		}
		if f, cleanup, err := startMySQLRender(ctx); err == nil {
			return f, cleanup, true
		} else {
			fmt.Fprintln(os.Stderr, "benchrender: skip mysql:", err)
		}
	case "sql_sqlite":
		dsn := "file:" + filepath.Join(os.TempDir(), "staticdata-bench.sqlite") + "?cache=shared&mode=rwc"
		store, err := sqlitedata.New(ctx, sqlitedata.Config{DSN: dsn, Table: "bench_payloads"})
		if err != nil {
			fmt.Fprintln(os.Stderr, "benchrender: skip sqlite:", err)
			break
		}
		return staticdata.New(store), func() {}, true
	}
	return nil, nil, false
}

// --- container helpers (simplified; duplicated from bench_test) ---

func startRedisRender(ctx context.Context) (*staticdata.Fetcher, func(), error) {
	req := testcontainers.ContainerRequest{Image: "redis:7-alpine", ExposedPorts: []string{"6379/tcp"}, WaitingFor: wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second)}
	c, addr, err := startRenderContainer(ctx, req, "6379/tcp")
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := staticdata.NewRedisStore(ctx, client)
	cleanup := func() { _ = client.Close(); _ = c.Terminate(context.Background()) }
	return staticdata.New(store), cleanup, nil
}

func startMemcachedRender(ctx context.Context) (*staticdata.Fetcher, func(), error) {
	req := testcontainers.ContainerRequest{Image: "memcached:alpine", ExposedPorts: []string{"11211/tcp"}, WaitingFor: wait.ForListeningPort("11211/tcp").WithStartupTimeout(30 * time.Second)}
	c, addr, err := startRenderContainer(ctx, req, "11211/tcp")
	if err != nil {
		return nil, nil, err
	}
	store := staticdata.NewMemcachedStore(ctx, []string{addr})
	cleanup := func() { _ = c.Terminate(context.Background()) }
	return staticdata.New(store), cleanup, nil
}

func startDynamoRender(ctx context.Context) (*staticdata.Fetcher, func(), error) {
	req := testcontainers.ContainerRequest{Image: "amazon/dynamodb-local:latest", ExposedPorts: []string{"8000/tcp"}, WaitingFor: wait.ForListeningPort("8000/tcp").WithStartupTimeout(45 * time.Second)}
	c, addr, err := startRenderContainer(ctx, req, "8000/tcp")
	if err != nil {
		return nil, nil, err
	}
	endpoint := "http://" + addr
	store := staticdata.NewStore(ctx, staticdata.StoreConfig{Driver: staticdata.DriverDynamo, DynamoEndpoint: endpoint, DynamoTable: "bench_payloads", DynamoRegion: "us-east-1"})
	cleanup := func() { _ = c.Terminate(context.Background()) }
	return staticdata.New(store), cleanup, nil
}

func startPostgresRender(ctx context.Context) (*staticdata.Fetcher, func(), error) {
	req := testcontainers.ContainerRequest{Image: "postgres:16-alpine", Env: map[string]string{"POSTGRES_PASSWORD": "pass", "POSTGRES_USER": "user", "POSTGRES_DB": "app"}, ExposedPorts: []string{"5432/tcp"}, WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second)}
	c, addr, err := startRenderContainer(ctx, req, "5432/tcp")
	if err != nil {
		return nil, nil, err
	}
	dsn := "postgres://user:pass@" + addr + "/app?sslmode=disable"
	store, err := postgresdata.New(ctx, postgresdata.Config{DSN: dsn, Table: "bench_payloads"})
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, nil, err
	}
	cleanup := func() { _ = c.Terminate(context.Background()) }
	return staticdata.New(store), cleanup, nil
}

func startMySQLRender(ctx context.Context) (*staticdata.Fetcher, func(), error) {
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		Env:          map[string]string{"MYSQL_ROOT_PASSWORD": "pass", "MYSQL_DATABASE": "app", "MYSQL_USER": "user", "MYSQL_PASSWORD": "pass"},
		ExposedPorts: []string{"3306/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("3306/tcp").WithStartupTimeout(90*time.Second),
			wait.ForLog("ready for connections").WithOccurrence(2).WithStartupTimeout(90*time.Second),
		),
	}
	c, addr, err := startRenderContainer(ctx, req, "3306/tcp")
	if err != nil {
		return nil, nil, err
	}
	dsn := "user:pass@tcp(" + addr + ")/app?parseTime=true"
	store, err := mysqldata.New(ctx, mysqldata.Config{DSN: dsn, Table: "bench_payloads"})
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, nil, err
	}
	cleanup := func() { _ = c.Terminate(context.Background()) }
	return staticdata.New(store), cleanup, nil
}

func startRenderContainer(ctx context.Context, req testcontainers.ContainerRequest, port string) (testcontainers.Container, string, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return nil, "", err
	}
	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, "", err
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, "", err
	}
	return c, host + ":" + mapped.Port(), nil
}

func findRoot() string {
	cwd, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		next := filepath.Dir(cwd)
		if next == cwd {
			panic("go.mod not found")
		}
		cwd = next
	}
}
