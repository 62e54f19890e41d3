package db

import (
	"context"
)

const addFood = `-- name: AddFood :exec
insert into foods (id, name) values (?, ?)
`

type AddFoodParams struct {
	ID   string
	Name string
}

func (q *Queries) AddFood(ctx context.Context, arg AddFoodParams) error {
	_, err := q.db.ExecContext(ctx, addFood, arg.ID, arg.Name)
	return err
}

const getAllFoods = `-- name: GetAllFoods :many
select id, name from foods order by rowid
`

func (q *Queries) GetAllFoods(ctx context.Context) ([]Food, error) {
	rows, err := q.db.QueryContext(ctx, getAllFoods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Food
	for rows.Next() {
		var i Food
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addUser = `-- name: AddUser :exec
insert into users (chat_id, username, student_number, password) values (?, ?, ?, ?)
on conflict (chat_id) do update set
    username = excluded.username,
    student_number = excluded.student_number,
    password = excluded.password
`

type AddUserParams struct {
	ChatID        int64
	Username      string
	StudentNumber string
	Password      string
}

func (q *Queries) AddUser(ctx context.Context, arg AddUserParams) error {
	_, err := q.db.ExecContext(ctx, addUser,
		arg.ChatID,
		arg.Username,
		arg.StudentNumber,
		arg.Password,
	)
	return err
}

const getUser = `-- name: GetUser :one
select chat_id, username, student_number, password from users
where chat_id = ?
`

func (q *Queries) GetUser(ctx context.Context, chatID int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, chatID)
	var i User
	err := row.Scan(
		&i.ChatID,
		&i.Username,
		&i.StudentNumber,
		&i.Password,
	)
	return i, err
}

const deleteUserFoodPriorities = `-- name: DeleteUserFoodPriorities :exec
delete from user_food_priorities where chat_id = ?
`

func (q *Queries) DeleteUserFoodPriorities(ctx context.Context, chatID int64) error {
	_, err := q.db.ExecContext(ctx, deleteUserFoodPriorities, chatID)
	return err
}

const addUserFoodPriority = `-- name: AddUserFoodPriority :exec
insert into user_food_priorities (chat_id, rank, food_id) values (?, ?, ?)
`

type AddUserFoodPriorityParams struct {
	ChatID int64
	Rank   int64
	FoodID string
}

func (q *Queries) AddUserFoodPriority(ctx context.Context, arg AddUserFoodPriorityParams) error {
	_, err := q.db.ExecContext(ctx, addUserFoodPriority, arg.ChatID, arg.Rank, arg.FoodID)
	return err
}

const getUserFoodPriorities = `-- name: GetUserFoodPriorities :many
select food_id from user_food_priorities
where chat_id = ?
order by rank
`

func (q *Queries) GetUserFoodPriorities(ctx context.Context, chatID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getUserFoodPriorities, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var food_id string
		if err := rows.Scan(&food_id); err != nil {
			return nil, err
		}
		items = append(items, food_id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
