package seed

import (
	"context"
	"testing"

	"stockflow/internal/models"
	"stockflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefaultFixtures(t *testing.T) {
	t.Parallel()
	f, err := DefaultFixtures()
	require.NoError(t, err)
	require.NotEmpty(t, f.Companies)
	for _, c := range f.Companies {
		assert.NotEmpty(t, c.Domain)
		assert.NotEmpty(t, c.Items, c.Domain)
	}
}

func TestParseFixtures_Rejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
	}{
		{"missing domain", "companies:\n  - name: Nameless\n"},
		{"duplicate domain", "companies:\n  - {name: A, domain: a}\n  - {name: B, domain: a}\n"},
		{"negative quantity", "companies:\n  - name: A\n    domain: a\n    items:\n      - {name: X, quantity: -1}\n"},
		{"malformed", "companies: [\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseFixtures([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	fixtures, err := ParseFixtures([]byte(`
companies:
  - name: Acme
    domain: acme
    items:
      - {name: Cable, category: Networking, location: Shelf 1, quantity: 5, min_stock: 2}
      - {name: Toner, category: Supplies, location: Copy Room, quantity: 1, min_stock: 4}
`))
	require.NoError(t, err)

	opts := Options{MembersPerCompany: 2, RequestsPerCompany: 8, Seed: 42}
	s, err := NewSeeder(db, fixtures, opts)
	require.NoError(t, err)

	summary, err := s.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Companies: 1, Users: 3, Items: 2, Requests: 8}, summary)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@acme.test").First(&admin).Error)
	assert.Equal(t, models.UserRoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(DefaultPassword)))

	for status, expected := range map[models.PurchaseRequestStatus]int64{
		models.PurchaseRequestStatusPending:  2,
		models.PurchaseRequestStatusApproved: 2,
		models.PurchaseRequestStatusRejected: 2,
		models.PurchaseRequestStatusReceived: 2,
	} {
		var n int64
		require.NoError(t, db.Model(&models.PurchaseRequest{}).Where("status = ?", status).Count(&n).Error)
		assert.Equal(t, expected, n, status)
	}

	var movements int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movements).Error)
	assert.Equal(t, int64(2), movements)

	_, err = s.Run(ctx, opts)
	assert.ErrorContains(t, err, "already seeded")

	require.NoError(t, s.ClearAll(ctx))
	var companies int64
	require.NoError(t, db.Model(&models.Company{}).Count(&companies).Error)
	assert.Zero(t, companies)
}
