package migrations

import (
	"database/sql"
	"log"

	"ourlife/backend/models"
)

// BackfillTransactionColors rewrites every stored color from its kind.
func BackfillTransactionColors(db *sql.DB) error {
	res, err := db.Exec(`
		UPDATE transactions
		SET color = CASE WHEN kind = ? THEN ? ELSE ? END
	`, models.KindIncome, models.ColorForKind(models.KindIncome), models.ColorForKind(models.KindExpense))
	if err != nil {
		log.Printf("Error backfilling transaction colors: %v", err)
		return err
	}

	n, _ := res.RowsAffected()
	log.Printf("Backfilled color on %d transactions", n)
	return nil
}
