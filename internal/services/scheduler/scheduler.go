// Package services содержит планировщик фоновых задач: ежемесячный сброс
// счётчиков сканирований и ежедневная публикация напоминаний о продлении
// подписки в очередь.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/pantrypilot/pantry-tracker/internal/lib/rabbitmq"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
	"github.com/pantrypilot/pantry-tracker/internal/models"
)

// Расписания задач.
const (
	scanResetSchedule = "0 0 1 * *" // первый день месяца, полночь
	reminderSchedule  = "0 9 * * *" // ежедневно в 09:00
)

// reminderLeadDays за сколько дней до конца периода отправляется напоминание.
const reminderLeadDays = 3

// SchedulerRepository определяет операции хранилища для фоновых задач.
type SchedulerRepository interface {
	// ResetAllScanUsage обнуляет счётчики сканирований всем пользователям.
	ResetAllScanUsage(ctx context.Context) (int64, error)
	// FindSubscriptionsEndingOn находит подписки с периодом, истекающим в дату.
	FindSubscriptionsEndingOn(ctx context.Context, date time.Time) ([]models.ReminderInfo, error)
}

// SchedulerService запускает периодические задачи по cron-расписанию.
type SchedulerService struct {
	repo SchedulerRepository
	cron *cron.Cron
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SchedulerRepository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		cron: cron.New(),
		log:  log,
	}
}

// Start регистрирует задачи и запускает планировщик. Остановка происходит
// при отмене контекста.
func (s *SchedulerService) Start(ctx context.Context, channel *amqp.Channel) error {
	if _, err := s.cron.AddFunc(scanResetSchedule, func() {
		s.RunScanUsageReset(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(reminderSchedule, func() {
		s.RunRenewalReminders(ctx, channel)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started")

	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		s.log.Info("scheduler stopped")
	}()
	return nil
}

// RunScanUsageReset обнуляет месячные счётчики сканирований.
func (s *SchedulerService) RunScanUsageReset(ctx context.Context) {
	s.log.Info("starting monthly scan usage reset")
	affected, err := s.repo.ResetAllScanUsage(ctx)
	if err != nil {
		s.log.Error("failed to reset scan usage", sl.Err(err))
		return
	}
	s.log.Info("scan usage reset complete", slog.Int64("users_affected", affected))
}

// RunRenewalReminders публикует напоминания о подписках, период которых
// истекает через несколько дней.
func (s *SchedulerService) RunRenewalReminders(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting renewal reminder run")
	target := time.Now().AddDate(0, 0, reminderLeadDays)
	reminders, err := s.repo.FindSubscriptionsEndingOn(ctx, target)
	if err != nil {
		s.log.Error("failed to find expiring subscriptions", sl.Err(err))
		return
	}
	if len(reminders) == 0 {
		s.log.Info("no expiring subscriptions found")
		return
	}
	s.log.Info("found expiring subscriptions", slog.Int("count", len(reminders)))
	for _, reminder := range reminders {
		err = rabbitmq.PublishMessage(channel, rabbitmq.ReminderExchange, rabbitmq.RenewalRoutingKey, reminder)
		if err != nil {
			s.log.Error("failed to publish reminder", sl.Err(err))
		}
	}
}
