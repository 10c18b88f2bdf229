package gate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/gate"
)

// scopedPolicy restricts documents to their owner and stamps ownership on writes.
type scopedPolicy struct {
	gate.Abilities[uint]
}

func (scopedPolicy) QualifyCollectionQuery(_ context.Context, userID uint, tx *gorm.DB) *gorm.DB {
	return tx.Where("owner_id = ?", userID)
}

func (scopedPolicy) QualifyItemQuery(_ context.Context, userID uint, tx *gorm.DB) *gorm.DB {
	return tx.Where("owner_id = ? AND archived = ?", userID, false)
}

func (scopedPolicy) QualifyStoreData(_ context.Context, userID uint, data gate.Payload) gate.Payload {
	out := gate.Payload{"owner_id": userID}
	for k, v := range data {
		if k != "owner_id" {
			out[k] = v
		}
	}
	return out
}

// nilScopePolicy returns nil from its hook, which must leave the query alone.
type nilScopePolicy struct {
	gate.Abilities[uint]
}

func (nilScopePolicy) QualifyCollectionQuery(context.Context, uint, *gorm.DB) *gorm.DB { return nil }

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

func TestQualifier_CollectionQuery(t *testing.T) {
	reg := gate.NewRegistry[uint]()
	reg.Register("document", scopedPolicy{})
	db := dryRunDB(t)

	q := gate.NewQualifier(reg, (*document)(nil))
	stmt := q.QualifyCollectionQuery(context.Background(), 7, db.Model(&document{})).Find(&[]document{}).Statement

	assert.Contains(t, stmt.SQL.String(), "owner_id = ?")
	assert.Equal(t, []any{uint(7)}, stmt.Vars)
}

func TestQualifier_ItemQuery(t *testing.T) {
	reg := gate.NewRegistry[uint]()
	reg.Register("document", scopedPolicy{})
	db := dryRunDB(t)

	q := gate.NewQualifier(reg, gate.Type("document"))
	stmt := q.QualifyItemQuery(context.Background(), 3, db.Model(&document{})).First(&document{}, 9).Statement

	assert.Contains(t, stmt.SQL.String(), "owner_id = ? AND archived = ?")
}

func TestQualifier_IdentityWithoutHook(t *testing.T) {
	reg := gate.NewRegistry[uint]()
	reg.Register("document", gate.Abilities[uint]{gate.ActionView: gate.Allow[uint]()})
	reg.Register("note", nilScopePolicy{})
	db := dryRunDB(t)
	ctx := context.Background()

	for _, model := range []any{&document{}, &note{}, gate.Type("unregistered")} {
		q := gate.NewQualifier(reg, model)
		tx := db.Model(model)
		assert.Same(t, tx, q.QualifyCollectionQuery(ctx, 1, tx), "collection query for %s", q.ResourceType())
		assert.Same(t, tx, q.QualifyItemQuery(ctx, 1, tx), "item query for %s", q.ResourceType())

		data := gate.Payload{"name": "x", "owner_id": 99}
		assert.Equal(t, data, q.QualifyStoreData(ctx, 1, data))
		assert.Equal(t, data, q.QualifyUpdateData(ctx, 1, data))
	}
}

func TestQualifier_StoreData(t *testing.T) {
	reg := gate.NewRegistry[uint]()
	reg.Register("document", scopedPolicy{})
	q := gate.New(reg).Qualifier(&document{})

	out := q.QualifyStoreData(context.Background(), 5, gate.Payload{"title": "t", "owner_id": 99})
	assert.Equal(t, gate.Payload{"title": "t", "owner_id": uint(5)}, out)

	// No update hook on scopedPolicy: update data passes through.
	in := gate.Payload{"owner_id": 99}
	assert.Equal(t, in, q.QualifyUpdateData(context.Background(), 5, in))
}
