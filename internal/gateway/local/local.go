// Package local is an embedded implementation of the gateway contract for
// development and tests, backed by a real SQL store (SQLite in memory by
// default, postgres via DSN) so filters, embeds and upsert-on-conflict keep
// their remote semantics.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/pkg/logger"
)

// Config configures the embedded gateway.
type Config struct {
	// DSN selects the backing database. Empty means in-memory SQLite; a
	// postgres DSN (host=... or postgres://) switches drivers.
	DSN       string
	JWTSecret string
	TokenTTL  time.Duration
}

// Gateway implements gateway.Gateway over an embedded SQL database.
type Gateway struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration

	mu      sync.Mutex
	session *gateway.Session
	subs    map[int]func(gateway.Event, *gateway.Session)
	nextSub int
}

type tableDef struct {
	newSlice func() interface{}
	newElem  func() interface{}
}

func def[T any]() tableDef {
	return tableDef{
		newSlice: func() interface{} { return new([]T) },
		newElem:  func() interface{} { return new(T) },
	}
}

var registry = map[string]tableDef{
	"profiles":   def[model.Profile](),
	"categories": def[model.Category](),
	"products":   def[model.Product](),
	"cart_items": def[model.CartLine](),
	"wishlist":   def[model.WishlistLine](),
	"orders":     def[model.Order](),
	"reviews":    def[model.Review](),
	"messages":   def[model.Message](),
	"addresses":  def[model.Address](),
}

// Open connects to the backing database and runs migrations.
func Open(cfg Config) (*Gateway, error) {
	var dialector gorm.Dialector
	switch {
	case cfg.DSN == "":
		dialector = sqlite.Open(":memory:")
	case strings.HasPrefix(cfg.DSN, "postgres://") || strings.Contains(cfg.DSN, "host="):
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local gateway database: %w", err)
	}

	if err := db.AutoMigrate(
		&authUser{},
		&model.Profile{},
		&model.Category{},
		&model.Product{},
		&model.CartLine{},
		&model.WishlistLine{},
		&model.Order{},
		&model.Review{},
		&model.Message{},
		&model.Address{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate local gateway database: %w", err)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "dev-secret"
	}

	logger.Info("Local gateway opened", map[string]interface{}{
		"backend": dialector.Name(),
	})

	return &Gateway{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: ttl,
		subs:     make(map[int]func(gateway.Event, *gateway.Session)),
	}, nil
}

// Close releases the underlying database connection.
func (g *Gateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying handle for seeding in tests.
func (g *Gateway) DB() *gorm.DB {
	return g.db
}

func (g *Gateway) Select(ctx context.Context, table string, q gateway.Query, dest interface{}) error {
	d, ok := registry[table]
	if !ok {
		return unknownTable(table)
	}

	tx := g.db.WithContext(ctx)
	for _, e := range q.Embeds {
		tx = tx.Preload(associationName(e.Field))
	}
	tx = applyFilter(tx, q.Filter)
	for _, o := range q.Orders {
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("%s %s", o.Column, dir))
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	slice := d.newSlice()
	if err := tx.Find(slice).Error; err != nil {
		return translate(err)
	}
	return reencode(slice, dest)
}

func (g *Gateway) SelectSingle(ctx context.Context, table string, q gateway.Query, dest interface{}) error {
	d, ok := registry[table]
	if !ok {
		return unknownTable(table)
	}

	tx := g.db.WithContext(ctx)
	for _, e := range q.Embeds {
		tx = tx.Preload(associationName(e.Field))
	}
	tx = applyFilter(tx, q.Filter)

	elem := d.newElem()
	if err := tx.First(elem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gateway.ErrNoRows
		}
		return translate(err)
	}
	return reencode(elem, dest)
}

func (g *Gateway) Count(ctx context.Context, table string, f gateway.Filter) (int64, error) {
	if _, ok := registry[table]; !ok {
		return 0, unknownTable(table)
	}
	var n int64
	tx := applyFilter(g.db.WithContext(ctx).Table(table), f)
	if err := tx.Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (g *Gateway) Insert(ctx context.Context, table string, row interface{}) error {
	d, ok := registry[table]
	if !ok {
		return unknownTable(table)
	}

	elem := d.newElem()
	if err := reencode(row, elem); err != nil {
		return err
	}
	ensureID(elem)

	if err := g.db.WithContext(ctx).Create(elem).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (g *Gateway) Upsert(ctx context.Context, table string, row interface{}, conflictKeys ...string) error {
	d, ok := registry[table]
	if !ok {
		return unknownTable(table)
	}
	if len(conflictKeys) == 0 {
		return g.Insert(ctx, table, row)
	}

	raw := map[string]interface{}{}
	if err := reencode(row, &raw); err != nil {
		return err
	}
	elem := d.newElem()
	if err := reencode(row, elem); err != nil {
		return err
	}
	ensureID(elem)

	keySet := make(map[string]bool, len(conflictKeys))
	cols := make([]clause.Column, 0, len(conflictKeys))
	for _, k := range conflictKeys {
		keySet[k] = true
		cols = append(cols, clause.Column{Name: k})
	}
	var updates []string
	for k := range raw {
		if !keySet[k] && k != "id" {
			updates = append(updates, k)
		}
	}
	sort.Strings(updates)

	conflict := clause.OnConflict{Columns: cols, DoNothing: true}
	if len(updates) > 0 {
		conflict = clause.OnConflict{Columns: cols, DoUpdates: clause.AssignmentColumns(updates)}
	}
	tx := g.db.WithContext(ctx).Clauses(conflict)
	if err := tx.Create(elem).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (g *Gateway) Update(ctx context.Context, table string, patch interface{}, f gateway.Filter) error {
	if _, ok := registry[table]; !ok {
		return unknownTable(table)
	}
	if len(f) == 0 {
		return &gateway.Error{Message: "update requires a filter"}
	}

	raw := map[string]interface{}{}
	if err := reencode(patch, &raw); err != nil {
		return err
	}
	flattenJSONValues(raw)

	tx := applyFilter(g.db.WithContext(ctx).Table(table), f)
	if err := tx.Updates(raw).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, table string, f gateway.Filter) error {
	d, ok := registry[table]
	if !ok {
		return unknownTable(table)
	}
	if len(f) == 0 {
		return &gateway.Error{Message: "delete requires a filter"}
	}

	tx := applyFilter(g.db.WithContext(ctx), f)
	if err := tx.Delete(d.newElem()).Error; err != nil {
		return translate(err)
	}
	return nil
}

func applyFilter(tx *gorm.DB, f gateway.Filter) *gorm.DB {
	for _, c := range f {
		switch c.Op {
		case gateway.OpEq:
			tx = tx.Where(fmt.Sprintf("%s = ?", c.Column), c.Value)
		case gateway.OpIn:
			tx = tx.Where(fmt.Sprintf("%s IN ?", c.Column), c.Value)
		case gateway.OpILike:
			tx = tx.Where(fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", c.Column), c.Value)
		case gateway.OpGte:
			tx = tx.Where(fmt.Sprintf("%s >= ?", c.Column), c.Value)
		case gateway.OpLte:
			tx = tx.Where(fmt.Sprintf("%s <= ?", c.Column), c.Value)
		}
	}
	return tx
}

// associationName maps an embed field ("product", "category") to the gorm
// association it preloads.
func associationName(field string) string {
	parts := strings.Split(field, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

// reencode moves a value across type boundaries through its JSON form, the
// same shape it would have on the wire.
func reencode(src, dest interface{}) error {
	b, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}
	return nil
}

// flattenJSONValues serializes nested values in a patch map so they bind as
// text columns, matching the serializer:json model fields.
func flattenJSONValues(m map[string]interface{}) {
	for k, v := range m {
		switch v.(type) {
		case []interface{}, map[string]interface{}:
			b, err := json.Marshal(v)
			if err == nil {
				m[k] = string(b)
			}
		}
	}
}

func ensureID(elem interface{}) {
	v := reflect.ValueOf(elem).Elem().FieldByName("ID")
	if v.IsValid() && v.Kind() == reflect.String && v.String() == "" {
		v.SetString(uuid.NewString())
	}
}

func unknownTable(table string) error {
	return &gateway.Error{Message: fmt.Sprintf("unknown table %q", table)}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return gateway.ErrConflict
	}
	return err
}
