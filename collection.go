package staticdata

import "context"

// Collection binds a fetcher to one keyBase so call sites derive keys from
// params only, e.g. f.Collection("post") for "post-<id>" entries.
type Collection struct {
	f       *Fetcher
	keyBase string
}

// Collection returns a keyBase-bound view of the fetcher.
// @group Collection
//
// Example: keyBase-bound view
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	posts := f.Collection("post")
//	fmt.Println(posts.Key("42")) // post-42
func (f *Fetcher) Collection(keyBase string) *Collection {
	return &Collection{f: f, keyBase: keyBase}
}

// Fetcher returns the fetcher the collection is bound to.
func (c *Collection) Fetcher() *Fetcher { return c.f }

// KeyBase returns the bound base identifier.
func (c *Collection) KeyBase() string { return c.keyBase }

// Key derives the cache key for a param value.
// @group Collection
func (c *Collection) Key(param string) string {
	return Key(c.keyBase, param)
}

// Invalidate removes the cache entry for one param value.
// @group Collection
func (c *Collection) Invalidate(param string) error {
	return c.f.Invalidate(c.keyBase, param)
}

// InvalidateCtx is the context-aware variant of Invalidate.
// @group Collection
func (c *Collection) InvalidateCtx(ctx context.Context, param string) error {
	return c.f.InvalidateCtx(ctx, c.keyBase, param)
}

// ResolveBytes resolves one entry of the collection as raw JSON.
// @group Collection
func (c *Collection) ResolveBytes(ctx context.Context, param string, factory BytesFactory) ([]byte, error) {
	return ResolveBytes(ctx, c.f, c.keyBase, param, factory)
}

// ResolveIn resolves one entry of a collection into T.
// @group Collection
//
// Example: typed collection resolve
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	posts := f.Collection("post")
//	post, _ := staticdata.ResolveIn(ctx, posts, "42", loadPost)
//	fmt.Println(post.Title) // A
func ResolveIn[T any](ctx context.Context, c *Collection, param string, factory Factory[T]) (T, error) {
	return Resolve(ctx, c.f, c.keyBase, param, factory)
}

// FetchIn returns a reactive handle for one entry of a collection.
// @group Collection
func FetchIn[T any](ctx context.Context, c *Collection, param *Param, factory Factory[T], opts ...FetchOption[T]) *Handle[T] {
	return Fetch(ctx, c.f, c.keyBase, param, factory, opts...)
}
