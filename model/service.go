// Package model is a small user domain wired through convention scanning.
package model

import (
	"fmt"

	gofac "github.com/Ngone6325/gofac-autoscan"
	"github.com/Ngone6325/gofac-autoscan/discovery"
)

// RepoConfig 仓库连接配置：由宿主以实例方式预先注册，扫描时视为已知能力
type RepoConfig struct {
	DSN string
}

// IUserRepo 用户仓库接口（Singleton）
type IUserRepo interface {
	GetUserID() int64
	GetRepoUUID() string // 获取实例自身的唯一地址
}

// UserRepo IUserRepo实现，生命周期由嵌入的标记声明
type UserRepo struct {
	gofac.SingletonService
	DSN  string
	UUID string // 存储自身实例的指针地址
}

// NewUserRepo 无参构造函数：使用默认连接串
func NewUserRepo() *UserRepo {
	return newUserRepo("mysql:127.0.0.1:3306/gofac?charset=utf8")
}

// NewUserRepoWithConfig 参数最多的构造函数，扫描时优先选用
func NewUserRepoWithConfig(cfg *RepoConfig) *UserRepo {
	return newUserRepo(cfg.DSN)
}

func newUserRepo(dsn string) *UserRepo {
	repo := &UserRepo{DSN: dsn}
	repo.UUID = fmt.Sprintf("%p", repo)
	return repo
}

func (r *UserRepo) GetUserID() int64    { return 10086 }
func (r *UserRepo) GetRepoUUID() string { return r.UUID }

// IUserService 用户服务接口（按 Service 后缀约定为 Transient）
type IUserService interface {
	GetUserName() string
	GetRepoUUID() string
}

// UserService IUserService实现，没有标记，依赖命名约定
type UserService struct {
	Repo IUserRepo
	UUID string
}

func NewUserService(repo IUserRepo) *UserService {
	svc := &UserService{Repo: repo}
	svc.UUID = fmt.Sprintf("%p", svc)
	return svc
}

func (s *UserService) GetUserName() string { return fmt.Sprintf("user_%d", s.Repo.GetUserID()) }
func (s *UserService) GetRepoUUID() string { return s.Repo.GetRepoUUID() }

// IUserLog 用户日志接口（Scoped）
type IUserLog interface {
	LogUserID() string
	GetLogUUID() string
}

// UserLog IUserLog实现
type UserLog struct {
	gofac.ScopedService
	Repo IUserRepo
	UUID string
}

func NewUserLog(repo IUserRepo) *UserLog {
	log := &UserLog{Repo: repo}
	log.UUID = fmt.Sprintf("%p", log)
	return log
}

func (l *UserLog) LogUserID() string  { return fmt.Sprintf("user_log: user_id=%d", l.Repo.GetUserID()) }
func (l *UserLog) GetLogUUID() string { return l.UUID }

// AuditTrail 汇总所有日志能力：不带标记也不匹配约定，因此不会被扫描注册
type AuditTrail struct {
	Logs []IUserLog
}

func NewAuditTrail(logs []IUserLog) *AuditTrail { return &AuditTrail{Logs: logs} }

// LegacyUserRepo 旧实现，显式排除
type LegacyUserRepo struct {
	gofac.IgnoredService
	UserRepo
}

func NewLegacyUserRepo() *LegacyUserRepo { return &LegacyUserRepo{} }

// Catalog 用户领域的构造函数目录，供扫描器发现
func Catalog() *discovery.Catalog {
	c := discovery.NewCatalog("model")
	if err := c.Interfaces((*IUserRepo)(nil), (*IUserService)(nil), (*IUserLog)(nil)); err != nil {
		panic(err)
	}
	c.MustAdd(NewUserService)
	c.MustAdd(NewUserLog)
	c.MustAdd(NewUserRepo)
	c.MustAdd(NewUserRepoWithConfig)
	c.MustAdd(NewAuditTrail)
	c.MustAdd(NewLegacyUserRepo)
	return c
}
