package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SetUserFoodPriorities replaces the priority list of a user, the first
// food in `foodIds` has the highest priority.
func SetUserFoodPriorities(ctx context.Context, database *sql.DB, chatId int64, foodIds []string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	qry := New(database).WithTx(tx)
	err = qry.DeleteUserFoodPriorities(ctx, chatId)
	if err != nil {
		return fmt.Errorf("clear priorities: %w", err)
	}
	for rank, foodId := range foodIds {
		err = qry.AddUserFoodPriority(ctx, AddUserFoodPriorityParams{
			ChatID: chatId,
			Rank:   int64(rank),
			FoodID: foodId,
		})
		if err != nil {
			return fmt.Errorf("add priority %s: %w", foodId, err)
		}
	}
	return tx.Commit()
}
