package pgstore

import "database/sql"

// Repos is every Postgres repo sharing db.
type Repos struct {
	Users         *UserRepo
	RefreshTokens *RefreshTokenRepo
	Tasks         *TaskRepo
	Messages      *MessageRepo
}

func NewRepos(db *sql.DB) Repos {
	return Repos{
		Users:         NewUserRepo(db),
		RefreshTokens: NewRefreshTokenRepo(db),
		Tasks:         NewTaskRepo(db),
		Messages:      NewMessageRepo(db),
	}
}
