package repository

import (
	"database/sql"

	"github.com/myfan-dev/myfan/console/internal/config"
)

// Repository 保存控制台自己的数据。DATABASE_DSN 为空时 dbpool 为 nil，所有写入都被忽略
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) Enabled() bool {
	return r != nil && r.dbpool != nil
}
