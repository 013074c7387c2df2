package app

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/photo-share/cache"
	"github.com/anoixa/photo-share/config"
	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/database/repo/accounts"
	"github.com/anoixa/photo-share/database/repo/favorites"
	"github.com/anoixa/photo-share/database/repo/photos"
	"github.com/anoixa/photo-share/internal/auth"
	"github.com/anoixa/photo-share/internal/realtime"
	svcAccounts "github.com/anoixa/photo-share/internal/services/accounts"
	"github.com/anoixa/photo-share/internal/services/consistency"
	svcFavorites "github.com/anoixa/photo-share/internal/services/favorites"
	svcPhotos "github.com/anoixa/photo-share/internal/services/photos"
	"github.com/anoixa/photo-share/storage"
	"github.com/anoixa/photo-share/utils"
	cryptopackage "github.com/anoixa/photo-share/utils/crypto"
)

// 广播队列长度
const hubQueueSize = 256

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	cacheProvider   cache.Provider
	storageProvider storage.Provider

	AccountsRepo  *accounts.Repository
	PhotosRepo    *photos.Repository
	FavoritesRepo *favorites.Repository

	Sessions  *auth.SessionManager
	Hub       *realtime.Hub
	Photos    *svcPhotos.Service
	Accounts  *svcAccounts.Service
	Favorites *svcFavorites.Service
	Sweeper   *consistency.Sweeper

	hubCancel context.CancelFunc
	hubDone   chan struct{}
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 初始化数据库、缓存、存储与全部服务
func (c *Container) Init() error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitServices(); err != nil {
		return err
	}
	return nil
}

// InitDatabase 只初始化数据库与仓库，供迁移、清理等命令使用
func (c *Container) InitDatabase() error {
	utils.LogIfDev("Initializing DI container...")

	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory

	c.initRepositories()

	utils.LogIfDev("DI container initialized successfully")
	return nil
}

// initRepositories 初始化所有仓库
func (c *Container) initRepositories() {
	db := c.databaseFactory.GetProvider()
	c.AccountsRepo = accounts.NewRepository(db)
	c.PhotosRepo = photos.NewRepository(db)
	c.FavoritesRepo = favorites.NewRepository(db)
	utils.LogIfDev("Repositories initialized")
}

// InitServices 初始化缓存、存储、会话与业务服务
func (c *Container) InitServices() error {
	if c.databaseFactory == nil {
		return fmt.Errorf("database is not initialized")
	}

	cacheProvider, err := cache.NewFromConfig(c.config)
	if err != nil {
		return err
	}
	c.cacheProvider = cacheProvider

	storageProvider, err := storage.NewFromConfig(c.config)
	if err != nil {
		return err
	}
	c.storageProvider = storageProvider

	sessions, err := auth.NewSessionManager(cacheProvider, auth.SessionConfig{
		Secret: []byte(c.config.SessionSecret),
		TTL:    c.config.SessionTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}
	c.Sessions = sessions

	c.Hub = realtime.NewHub(hubQueueSize, c.config.WSSendBuffer)
	c.Photos = svcPhotos.NewService(c.PhotosRepo, c.AccountsRepo, storageProvider, c.Hub)
	c.Accounts = svcAccounts.NewService(
		c.AccountsRepo,
		c.PhotosRepo,
		c.FavoritesRepo,
		c.Photos,
		sessions,
		cryptopackage.NewHasher(cryptopackage.DefaultParams),
	)
	c.Favorites = svcFavorites.NewService(c.FavoritesRepo)

	utils.LogIfDev("Services initialized")
	return nil
}

// InitSweeper 初始化一致性清理器；只需数据库时 blob 删除使用存储后端直接完成
func (c *Container) InitSweeper() error {
	if c.databaseFactory == nil {
		return fmt.Errorf("database is not initialized")
	}
	if c.Photos == nil {
		storageProvider, err := storage.NewFromConfig(c.config)
		if err != nil {
			return err
		}
		c.storageProvider = storageProvider
		c.Photos = svcPhotos.NewService(c.PhotosRepo, c.AccountsRepo, storageProvider, nil)
	}
	c.Sweeper = consistency.NewSweeper(c.PhotosRepo, c.FavoritesRepo, c.Photos)
	return nil
}

// Migrate 自动迁移数据库结构
func (c *Container) Migrate() error {
	if c.databaseFactory == nil {
		return fmt.Errorf("database is not initialized")
	}
	return c.databaseFactory.AutoMigrate()
}

// StartHub 在后台运行实时推送中心
func (c *Container) StartHub() {
	if c.Hub == nil || c.hubCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.hubCancel = cancel
	c.hubDone = make(chan struct{})

	utils.SafeGo("realtime-hub", func() {
		defer close(c.hubDone)
		c.Hub.Run(ctx)
	})
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetCacheProvider 获取缓存提供者
func (c *Container) GetCacheProvider() cache.Provider {
	return c.cacheProvider
}

// GetStorageProvider 获取存储提供者
func (c *Container) GetStorageProvider() storage.Provider {
	return c.storageProvider
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// Close 关闭所有服务
func (c *Container) Close() error {
	utils.LogIfDev("Closing DI container...")

	if c.Sweeper != nil {
		c.Sweeper.Stop()
	}

	if c.hubCancel != nil {
		c.hubCancel()
		<-c.hubDone
	}

	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil {
			log.Printf("[Container] Error closing cache provider: %v", err)
		}
	}

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			utils.LogIfDevf("Error closing database factory: %v", err)
		}
	}

	utils.LogIfDev("DI container closed")
	return nil
}
