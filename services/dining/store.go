package dining

import (
	"context"
	"diningbot-backend/lib/catalog"
	"diningbot-backend/services/dining/db"
)

// foodStore is the catalog's view of the database.
type foodStore struct {
	qry *db.Queries
}

func (s foodStore) GetAllFoods(ctx context.Context) ([]catalog.Food, error) {
	rows, err := s.qry.GetAllFoods(ctx)
	if err != nil {
		return nil, err
	}
	foods := make([]catalog.Food, len(rows))
	for i, row := range rows {
		foods[i] = catalog.Food{Id: row.ID, Name: row.Name}
	}
	return foods, nil
}

func (s foodStore) AddFood(ctx context.Context, food catalog.Food) error {
	return s.qry.AddFood(ctx, db.AddFoodParams{
		ID:   food.Id,
		Name: food.Name,
	})
}
