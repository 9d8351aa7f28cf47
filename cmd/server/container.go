package main

import (
	"context"
	"log"

	"github.com/arenalabs/tradearena/agent"
	"github.com/arenalabs/tradearena/agent/agentapi"
	"github.com/arenalabs/tradearena/agent/agentinfra"
	"github.com/arenalabs/tradearena/agent/agentsrv"

	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/competition/competitionapi"
	"github.com/arenalabs/tradearena/competition/competitioninfra"
	"github.com/arenalabs/tradearena/competition/compscheduler"
	"github.com/arenalabs/tradearena/competition/compsrv"

	"github.com/arenalabs/tradearena/iam/admin"
	"github.com/arenalabs/tradearena/iam/admin/adminapi"
	"github.com/arenalabs/tradearena/iam/admin/admininfra"
	"github.com/arenalabs/tradearena/iam/admin/adminsrv"
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/arenalabs/tradearena/iam/session"
	"github.com/arenalabs/tradearena/iam/user"
	"github.com/arenalabs/tradearena/iam/user/userapi"
	"github.com/arenalabs/tradearena/iam/user/userinfra"
	"github.com/arenalabs/tradearena/iam/user/usersrv"

	"github.com/arenalabs/tradearena/rewards"
	"github.com/arenalabs/tradearena/rewards/rewardsapi"
	"github.com/arenalabs/tradearena/rewards/rewardsinfra"
	"github.com/arenalabs/tradearena/rewards/rewardsrv"

	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/arenalabs/tradearena/pkg/config"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// Container contains all application dependencies
type Container struct {
	// =================================================================
	// CONFIGURATION & INFRASTRUCTURE
	// =================================================================
	Config      *config.Config
	DB          *sqlx.DB
	RedisClient *redis.Client

	// =================================================================
	// CACHE ⚡
	// =================================================================
	CacheStore cachex.Store
	Cache      *cachex.Cache

	// =================================================================
	// SESSION & AUTH
	// =================================================================
	SessionMiddleware *session.Middleware
	TokenVerifier     auth.IdentityTokenVerifier
	AuthMiddleware    *auth.AuthMiddleware
	AuthHandlers      *auth.AuthHandlers

	// =================================================================
	// REPOSITORIES
	// =================================================================
	UserRepo        user.UserRepository
	AdminRepo       admin.AdminRepository
	AgentRepo       agent.AgentRepository
	CompetitionRepo competition.CompetitionRepository
	ParticipantRepo competition.ParticipantRepository
	SnapshotRepo    competition.SnapshotRepository
	RewardRepo      rewards.RewardRepository

	// =================================================================
	// SERVICES
	// =================================================================
	SignatureVerifier  user.SignatureVerifier
	PasswordService    admin.PasswordService
	UserService        *usersrv.UserService
	AdminService       *adminsrv.AdminService
	AgentService       *agentsrv.AgentService
	CompetitionService *compsrv.CompetitionService
	RewardService      *rewardsrv.RewardService

	// =================================================================
	// SCHEDULER ⏰
	// =================================================================
	Scheduler       *compscheduler.CompetitionScheduler
	schedulerCancel context.CancelFunc

	// =================================================================
	// API HANDLERS
	// =================================================================
	UserHandler        *userapi.UserHandler
	AdminHandler       *adminapi.AdminHandler
	AgentHandler       *agentapi.AgentHandler
	CompetitionHandler *competitionapi.CompetitionHandler
	RewardHandler      *rewardsapi.RewardHandler
}

// NewContainer creates a new dependency container
func NewContainer(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client) *Container {
	c := &Container{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
	}

	// Initialize dependencies in the correct order
	c.initCache()
	c.initRepositories()
	c.initServices()
	c.initAuth()
	c.initScheduler()
	c.initHandlers()

	return c
}

// =================================================================
// CACHE INITIALIZATION ⚡
// =================================================================

func (c *Container) initCache() {
	log.Println("  ⚡ Initializing cache layer...")
	c.CacheStore = cachex.NewRedisStore(c.RedisClient)
	c.Cache = cachex.New(c.CacheStore)
	log.Println("  ✅ Cache layer initialized")
}

// =================================================================
// REPOSITORIES INITIALIZATION
// =================================================================

func (c *Container) initRepositories() {
	log.Println("  🗄️  Initializing repositories...")
	c.UserRepo = userinfra.NewPostgresUserRepository(c.DB)
	c.AdminRepo = admininfra.NewPostgresAdminRepository(c.DB)
	c.AgentRepo = agentinfra.NewPostgresAgentRepository(c.DB)
	c.CompetitionRepo = competitioninfra.NewPostgresCompetitionRepository(c.DB)
	c.ParticipantRepo = competitioninfra.NewPostgresParticipantRepository(c.DB)
	c.SnapshotRepo = competitioninfra.NewPostgresSnapshotRepository(c.DB)
	c.RewardRepo = rewardsinfra.NewPostgresRewardRepository(c.DB)
	log.Println("  ✅ Repositories initialized")
}

// =================================================================
// SERVICES INITIALIZATION
// =================================================================

func (c *Container) initServices() {
	log.Println("  ⚙️  Initializing services...")

	c.SignatureVerifier = userinfra.NewHMACSignatureVerifier(c.Config.Identity.Secret)
	c.PasswordService = admininfra.NewBcryptPasswordService()

	c.UserService = usersrv.NewUserService(
		c.UserRepo,
		c.SignatureVerifier,
		c.Cache,
	)

	c.AdminService = adminsrv.NewAdminService(
		c.AdminRepo,
		c.PasswordService,
	)

	c.AgentService = agentsrv.NewAgentService(
		c.AgentRepo,
		c.Cache,
	)

	c.CompetitionService = compsrv.NewCompetitionService(
		c.CompetitionRepo,
		c.ParticipantRepo,
		c.SnapshotRepo,
		c.AgentRepo,
		c.Cache,
	)

	c.RewardService = rewardsrv.NewRewardService(
		c.RewardRepo,
		c.CompetitionRepo,
		c.Cache,
	)

	log.Println("  ✅ Services initialized")
}

// =================================================================
// AUTH INITIALIZATION 🔐
// =================================================================

func (c *Container) initAuth() {
	log.Println("  🔐 Initializing session and auth...")

	c.SessionMiddleware = session.NewMiddleware(c.Config.Session)
	c.TokenVerifier = auth.NewJWTVerifier(c.Config.Identity.Secret, c.Config.Identity.Issuer)

	c.AuthMiddleware = auth.NewAuthMiddleware(
		c.TokenVerifier,
		c.AgentService,
		c.UserService,
		c.Config.Identity,
	)

	c.AuthHandlers = auth.NewAuthHandlers(
		c.UserService,
		c.AdminService,
		c.SessionMiddleware,
	)

	log.Println("  ✅ Session and auth initialized")
}

// =================================================================
// SCHEDULER INITIALIZATION ⏰
// =================================================================

func (c *Container) initScheduler() {
	log.Println("  ⏰ Initializing competition scheduler...")

	c.Scheduler = compscheduler.NewCompetitionScheduler(
		c.CompetitionRepo,
		c.CompetitionService,
		c.Cache,
		c.Config.Scheduler.Interval,
		c.Config.Scheduler.SnapshotSchedule,
	)

	ctx, cancel := context.WithCancel(context.Background())
	c.schedulerCancel = cancel
	go c.Scheduler.Start(ctx)

	log.Println("  ✅ Competition scheduler started")
}

// =================================================================
// HANDLERS INITIALIZATION
// =================================================================

func (c *Container) initHandlers() {
	log.Println("  🛣️  Initializing API handlers...")
	c.UserHandler = userapi.NewUserHandler(c.UserService)
	c.AdminHandler = adminapi.NewAdminHandler(c.AdminService)
	c.AgentHandler = agentapi.NewAgentHandler(c.AgentService)
	c.CompetitionHandler = competitionapi.NewCompetitionHandler(c.CompetitionService)
	c.RewardHandler = rewardsapi.NewRewardHandler(c.RewardService)
	log.Println("  ✅ API handlers initialized")
}

// =================================================================
// UTILITY METHODS
// =================================================================

func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.Scheduler != nil {
		log.Println("  ⏰ Stopping competition scheduler...")
		c.Scheduler.Stop()
	}
	if c.schedulerCancel != nil {
		c.schedulerCancel()
	}

	if c.DB != nil {
		log.Println("  🗄️  Closing database connections...")
		c.DB.Close()
	}

	if c.RedisClient != nil {
		log.Println("  🔴 Closing Redis connections...")
		c.RedisClient.Close()
	}

	log.Println("✅ Container cleanup complete")
}

func (c *Container) HealthCheck() map[string]bool {
	health := make(map[string]bool)

	if c.DB != nil {
		health["database"] = c.DB.Ping() == nil
	} else {
		health["database"] = false
	}

	if c.RedisClient != nil {
		health["redis"] = c.RedisClient.Ping(c.RedisClient.Context()).Err() == nil
	} else {
		health["redis"] = false
	}

	health["cache"] = c.Cache != nil
	health["scheduler"] = c.Scheduler != nil

	return health
}

func (c *Container) GetServiceNames() []string {
	return []string{
		"UserService",
		"AdminService",
		"AgentService",
		"CompetitionService",
		"RewardService",
		"Scheduler",
	}
}

func (c *Container) GetRepositoryNames() []string {
	return []string{
		"UserRepo",
		"AdminRepo",
		"AgentRepo",
		"CompetitionRepo",
		"ParticipantRepo",
		"SnapshotRepo",
		"RewardRepo",
	}
}
