package db

type Food struct {
	ID   string
	Name string
}

type User struct {
	ChatID        int64
	Username      string
	StudentNumber string
	Password      string
}

type UserFoodPriority struct {
	ChatID int64
	Rank   int64
	FoodID string
}
