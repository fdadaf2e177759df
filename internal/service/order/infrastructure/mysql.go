package infrastructure

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"mtogo/internal/pkg/bootstrap"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// BuildDSN 用驱动自带的 Config 组装 DSN，避免手写转义。
// ClientFoundRows 让 UPDATE 返回匹配行数而不是实际变化行数。
func BuildDSN(cfg bootstrap.MySQLConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.ClientFoundRows = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// OpenMySQL 建立连接池并确认数据库可达。表结构由迁移工具维护，这里不做 AutoMigrate。
func OpenMySQL(ctx context.Context, cfg bootstrap.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(BuildDSN(cfg)), &gorm.Config{
		Logger:                 NewGormLogger(200 * time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql %s: %w", cfg.Host, err)
	}
	return db, nil
}

// CloseDB 供 bootstrap 关停时调用
func CloseDB(db *gorm.DB) func(context.Context) error {
	return func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}
