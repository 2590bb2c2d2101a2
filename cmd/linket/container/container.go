package container

import (
	"context"

	"github.com/linkethq/linket/cmd/linket/repository"
	"github.com/linkethq/linket/cmd/linket/service"
	"github.com/linkethq/linket/common/bootstrap"
	"github.com/linkethq/linket/common/ratelimit"
	"github.com/linkethq/linket/common/tasks"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Runner     *tasks.Runner
	Limiter    *ratelimit.Limiter

	// Repositories (nil when the store is not configured)
	TagRepo        *repository.TagRepository
	AssignmentRepo *repository.AssignmentRepository
	ProfileRepo    *repository.ProfileRepository
	EventRepo      *repository.EventRepository
	BatchRepo      *repository.BatchRepository

	// Services (nil when the store is not configured; handlers answer
	// such requests with the unconfigured error)
	ProfileResolver *service.ProfileResolver
	EventService    *service.EventService
	RedirectService *service.RedirectService
	ClaimService    *service.ClaimService
	MintService     *service.MintService
}

// NewContainer initializes all services and repositories once.
//
// Without the privileged store credential the container still comes up:
// every service stays nil and the read/write surfaces degrade per
// handler instead of failing boot. The public site must keep serving
// even when this subsystem has no database.
func NewContainer(components *bootstrap.Components) (*Container, error) {
	c := &Container{
		Components: components,
		Runner:     tasks.NewRunner(components.Logger),
	}

	if components.Redis != nil {
		c.Limiter = ratelimit.NewLimiter(components.Redis.GetUnderlying(), components.Logger)
	}

	if components.DB == nil {
		components.Logger.Warn("store not configured, running degraded: claims, dashboard and mint are disabled")
		return c, nil
	}

	// Repositories
	c.TagRepo = repository.NewTagRepository(components.DB)
	c.AssignmentRepo = repository.NewAssignmentRepository(components.DB)
	c.ProfileRepo = repository.NewProfileRepository(components.DB)
	c.EventRepo = repository.NewEventRepository(components.DB)
	c.BatchRepo = repository.NewBatchRepository(components.DB)

	// Services (bottom-up: dependencies first)
	c.ProfileResolver = service.NewProfileResolver(c.ProfileRepo, components.Logger)
	c.EventService = service.NewEventService(c.EventRepo, c.AssignmentRepo, c.Runner, components.Logger)
	c.RedirectService = service.NewRedirectService(
		c.TagRepo,
		c.AssignmentRepo,
		c.ProfileResolver,
		c.EventService,
		c.Runner,
		components.Logger,
	)

	var purger service.CachePurger = noopPurger{}
	if components.Redis != nil {
		purger = service.NewRedirectCachePurger(components.Redis)
	}

	c.ClaimService = service.NewClaimService(
		c.TagRepo,
		c.AssignmentRepo,
		c.ProfileResolver,
		c.EventService,
		purger,
		c.Runner,
		components.Logger,
	)
	c.MintService = service.NewMintService(
		c.BatchRepo,
		c.TagRepo,
		components.Config.Site.Origin,
		components.Logger,
	)

	return c, nil
}

// Shutdown flushes detached work before the process exits
func (c *Container) Shutdown() {
	c.Runner.Wait()
}

// noopPurger stands in when Redis is absent; there is no cache to purge
type noopPurger struct{}

func (noopPurger) Purge(ctx context.Context, token string) error { return nil }
