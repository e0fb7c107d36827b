package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/merchstore/go-points-orders/internal/fault"
	"github.com/merchstore/go-points-orders/internal/store"
)

// Service is the catalog index: product CRUD plus SKU -> variant lookup.
type Service struct {
	store store.Store
	locks *store.KeyLocks
}

func NewService(st store.Store, locks *store.KeyLocks) *Service {
	return &Service{store: st, locks: locks}
}

// CreateProduct registers a product and all of its variants. The whole batch
// is validated before anything is written: a SKU repeated inside the request
// fails with DuplicateInRequest, a SKU already in the index with SkuExists.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	skus := make([]string, 0, len(in.Variants))
	seen := make(map[string]bool, len(in.Variants))
	var dups []string
	for _, v := range in.Variants {
		if seen[v.SKU] {
			dups = append(dups, v.SKU)
		}
		seen[v.SKU] = true
		skus = append(skus, v.SKU)
	}
	if len(dups) > 0 {
		return Product{}, fault.New(fault.DuplicateInRequest, "skus", dups)
	}

	keys := make([]string, 0, len(skus))
	for _, sku := range skus {
		keys = append(keys, store.VariantKey(sku))
	}
	release := s.locks.Acquire(keys...)
	defer release()

	for _, sku := range skus {
		_, err := s.store.Get(ctx, store.BucketVariants, sku)
		if err == nil {
			return Product{}, fault.New(fault.SkuExists, "sku", sku)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return Product{}, err
		}
	}

	id, err := s.store.NextID(ctx, store.SeqProducts)
	if err != nil {
		return Product{}, err
	}
	p := Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Images:      in.Images,
		Variants:    make([]Variant, 0, len(in.Variants)),
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	for _, vi := range in.Variants {
		v := Variant{
			SKU:         vi.SKU,
			Size:        vi.Size,
			Color:       vi.Color,
			PricePoints: vi.PricePoints,
			StockTotal:  vi.StockTotal,
			ProductID:   id,
		}
		p.Variants = append(p.Variants, v)
		b, err := json.Marshal(v)
		if err != nil {
			return Product{}, err
		}
		if err := s.store.Put(ctx, store.BucketVariants, v.SKU, b); err != nil {
			return Product{}, err
		}
	}

	b, err := json.Marshal(p)
	if err != nil {
		return Product{}, err
	}
	if err := s.store.Put(ctx, store.BucketProducts, strconv.FormatInt(id, 10), b); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	b, err := s.store.Get(ctx, store.BucketProducts, strconv.FormatInt(id, 10))
	if errors.Is(err, store.ErrNotFound) {
		return Product{}, fault.New(fault.NotFound, "product_id", id)
	}
	if err != nil {
		return Product{}, err
	}
	var p Product
	if err := json.Unmarshal(b, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// ListProducts returns products sorted by id, optionally filtered by a
// case-insensitive substring of the name.
func (s *Service) ListProducts(ctx context.Context, q string) ([]Product, error) {
	raw, err := s.store.List(ctx, store.BucketProducts)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(raw))
	ql := strings.ToLower(q)
	for _, b := range raw {
		var p Product
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, err
		}
		if ql != "" && !strings.Contains(strings.ToLower(p.Name), ql) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Variant looks up a single SKU.
func (s *Service) Variant(ctx context.Context, sku string) (Variant, error) {
	return LoadVariant(ctx, s.store, sku)
}

// LoadVariant reads a variant straight from the store. Used by the order
// service while it holds the variant's key lock.
func LoadVariant(ctx context.Context, st store.Store, sku string) (Variant, error) {
	b, err := st.Get(ctx, store.BucketVariants, sku)
	if errors.Is(err, store.ErrNotFound) {
		return Variant{}, fault.New(fault.SkuNotFound, "sku", sku)
	}
	if err != nil {
		return Variant{}, err
	}
	var v Variant
	if err := json.Unmarshal(b, &v); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// SaveVariant writes a variant back. Caller holds the variant's key lock.
func SaveVariant(ctx context.Context, st store.Store, v Variant) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return st.Put(ctx, store.BucketVariants, v.SKU, b)
}
