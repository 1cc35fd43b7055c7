package repository

import (
	"context"
	"time"

	"taskbot/internal/dates"
	"taskbot/internal/model"
	"taskbot/internal/notion"
	"taskbot/internal/service"
	"taskbot/pkg/logger"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"
)

// Property names in the Notion task database.
const (
	PropName     = "Name"
	PropGroup    = "Gruppe"
	PropPriority = "Priorität"
	PropDate     = "Datum"
)

const (
	queryPageSize = 100
	maxQueryPages = 50
)

// TaskStore maps task records and filters onto the Notion database. It never
// returns errors: failures are logged and reported as false or an empty
// result.
type TaskStore struct {
	client     *notion.Client
	databaseID string
	resolver   *dates.Resolver
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

func NewTaskStore(client *notion.Client, databaseID string, resolver *dates.Resolver, loc *time.Location, logger *zap.Logger) *TaskStore {
	return &TaskStore{
		client:     client,
		databaseID: databaseID,
		resolver:   resolver,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the time source used to resolve relative dates.
func (s *TaskStore) WithClock(now func() time.Time) *TaskStore {
	s.now = now
	return s
}

// Create persists record. Priority is only sent when set; the due date only
// when it resolves to a calendar date. It reports whether Notion accepted
// the page.
func (s *TaskStore) Create(ctx context.Context, record model.TaskRecord) bool {
	log := logger.WithTrace(ctx, s.logger)

	props := notionapi.Properties{
		PropName:  notion.TitleValue(record.DisplayName()),
		PropGroup: notion.SelectValue(service.NormalizeGroup(record.Group)),
	}
	if priority, ok := service.NormalizePriority(record.Priority); ok {
		props[PropPriority] = notion.SelectValue(priority)
	}
	if record.DueDate != "" {
		if day, ok := s.resolveDate(record.DueDate); ok {
			props[PropDate] = notion.DateStartValue(day)
		} else {
			log.Warn("Could not parse due date, creating task without it",
				zap.String("due_date", record.DueDate),
			)
		}
	}

	page, err := s.client.CreatePage(ctx, s.databaseID, props)
	if err != nil {
		log.Error("Failed to create task in Notion", zap.Error(err))
		return false
	}

	log.Info("Task created in Notion",
		zap.String("page_id", string(page.ID)),
		zap.String("task_name", record.DisplayName()),
	)
	return true
}

// Query returns every task matching filter, following Notion pagination.
// An unresolvable due date drops only that criterion; an empty filter
// lists the whole database.
func (s *TaskStore) Query(ctx context.Context, filter model.FilterCriteria) model.QueryResult {
	log := logger.WithTrace(ctx, s.logger)

	req := &notionapi.DatabaseQueryRequest{
		PageSize: queryPageSize,
	}
	if f := s.buildFilter(ctx, filter); len(f) > 0 {
		req.Filter = f
	}

	var result model.QueryResult
	pages, truncated := 0, false
	for {
		resp, err := s.client.QueryDatabase(ctx, s.databaseID, req)
		if err != nil {
			log.Error("Failed to query tasks", zap.Error(err))
			return model.QueryResult{}
		}
		pages++
		for _, p := range resp.Results {
			name := notion.PlainTitle(p.Properties, PropName)
			if name == "" {
				name = model.DefaultTaskName
			}
			result.Tasks = append(result.Tasks, model.TaskSummary{Name: name})
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		if pages == maxQueryPages {
			truncated = true
			break
		}
		req.StartCursor = resp.NextCursor
	}

	if truncated {
		log.Warn("Task query truncated, more results remain in Notion",
			zap.Int("pages", pages),
			zap.Int("count", len(result.Tasks)),
		)
	}
	log.Info("Queried tasks",
		zap.Bool("filtered", req.Filter != nil),
		zap.Int("count", len(result.Tasks)),
	)
	return result
}

func (s *TaskStore) resolveDate(text string) (time.Time, bool) {
	iso, ok := s.resolver.Resolve(text, s.now(), s.loc)
	if !ok {
		return time.Time{}, false
	}
	day, err := time.Parse(dates.ISOLayout, iso)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// buildFilter returns nil when no usable criterion remains.
func (s *TaskStore) buildFilter(ctx context.Context, filter model.FilterCriteria) notionapi.AndCompoundFilter {
	if filter.IsEmpty() {
		return nil
	}

	var conditions notionapi.AndCompoundFilter
	if filter.DueDate != "" {
		if day, ok := s.resolveDate(filter.DueDate); ok {
			conditions = append(conditions, notion.DateEquals(PropDate, day))
		} else {
			logger.WithTrace(ctx, s.logger).Info("Dropping unparseable due date criterion",
				zap.String("due_date", filter.DueDate),
			)
		}
	}
	if filter.Group != "" {
		conditions = append(conditions, notion.SelectEquals(PropGroup, filter.Group))
	}
	if filter.Priority != "" {
		conditions = append(conditions, notion.SelectEquals(PropPriority, filter.Priority))
	}
	return conditions
}
