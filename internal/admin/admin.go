// Package admin holds trusted operator tasks that span tenants. It is
// reached from the command line only, never from HTTP handlers.
package admin

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/suteetoe/backoffice/internal/admin/internal/unscoped"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates every table
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations", zap.Int("models", len(model.All())))
	if err := database.MigrateModels(db, model.All()...); err != nil {
		log.Error("Migration failed", zap.Error(err))
		return err
	}
	log.Info("Database migrations completed")
	return nil
}

// TenantSummary counts one tenant's rows per scoped table
type TenantSummary struct {
	Tenant model.Tenant
	Counts map[string]int64
}

// Report lists every tenant and the rows no tenant can see
type Report struct {
	Tenants []TenantSummary
	// Orphans counts tenant-less rows per scoped table
	Orphans            map[string]int64
	UsersWithoutTenant int64
}

// TenantReport builds a cross-tenant report
func TenantReport(ctx context.Context, db *gorm.DB) (*Report, error) {
	store := unscoped.New(db)

	tenants, err := store.Tenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	report := &Report{Orphans: make(map[string]int64, len(unscoped.ScopedTables))}
	perTable := make(map[string]map[uint]int64, len(unscoped.ScopedTables))
	for _, table := range unscoped.ScopedTables {
		counts, err := store.CountByTenant(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		perTable[table] = counts

		orphans, err := store.CountOrphans(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("count orphan %s: %w", table, err)
		}
		report.Orphans[table] = orphans
	}

	for _, t := range tenants {
		summary := TenantSummary{Tenant: t, Counts: make(map[string]int64, len(perTable))}
		for table, counts := range perTable {
			summary.Counts[table] = counts[t.ID]
		}
		report.Tenants = append(report.Tenants, summary)
	}

	report.UsersWithoutTenant, err = store.UsersWithoutTenant(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users without tenant: %w", err)
	}
	return report, nil
}

// Write prints the report as an aligned table
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tCATEGORIES\tPRODUCTS\tCLIENTS\tORDERS")
	for _, s := range r.Tenants {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
			s.Tenant.ID, s.Tenant.Name, s.Tenant.Domain,
			s.Counts["categories"], s.Counts["products"], s.Counts["clients"], s.Counts["orders"])
	}
	fmt.Fprintf(tw, "-\t(no tenant)\t-\t%d\t%d\t%d\t%d\n",
		r.Orphans["categories"], r.Orphans["products"], r.Orphans["clients"], r.Orphans["orders"])
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "users without tenant: %d\n", r.UsersWithoutTenant)
	return err
}
