package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/atelier-erp/settlement-engine/internal/repository"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createOrdersTable(),
		createPaymentsTable(),
		createAccountsPayableTable(),
		createRecurringAccountsTable(),
	})

	return m.Migrate()
}

func createOrdersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_orders",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OrderModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_orders_user_payment_status ON orders (user_id, payment_status)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.OrderModel{})
		},
	}
}

func createPaymentsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_payments",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.PaymentAttemptModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_payments_order_created ON payments (order_id, created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments (user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_payments_stale ON payments (updated_at) WHERE status = 'processing'`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PaymentAttemptModel{})
		},
	}
}

func createAccountsPayableTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_accounts_payable",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ObligationModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_accounts_payable_user_installment ON accounts_payable (user_id, is_installment)`,
				`CREATE INDEX IF NOT EXISTS idx_accounts_payable_parent ON accounts_payable (parent_installment_id) WHERE parent_installment_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_accounts_payable_due_date ON accounts_payable (due_date) WHERE is_paid = false`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ObligationModel{})
		},
	}
}

func createRecurringAccountsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_recurring_accounts",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.RecurringAccountModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_recurring_accounts_user ON recurring_accounts (user_id) WHERE is_active = true`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.RecurringAccountModel{})
		},
	}
}
