package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cerium.app/cerium/core/config"
	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/queue"
	"cerium.app/cerium/internal/service"
	"cerium.app/cerium/internal/store"
)

var _ = Describe("ExtractionService", func() {
	var (
		svc      service.ExtractionService
		profiles *mockProfileStore
		producer *mockProducer
		ctx      context.Context
	)

	token := func(s string) *string { return &s }

	BeforeEach(func() {
		ctx = context.Background()
		profiles = &mockProfileStore{}
		producer = &mockProducer{}

		svc = service.NewExtractionService(profiles, producer, config.ExtractionConfig{
			MessageLimit: 1000,
		})
	})

	Context("when the user has a Slack bot token", func() {
		BeforeEach(func() {
			profiles.getByUserIDFn = func(_ context.Context, userID int64) (*model.Profile, error) {
				return &model.Profile{UserID: userID, SlackBotToken: token("xoxb-test")}, nil
			}
		})

		It("should enqueue one task per channel", func() {
			var tasks []queue.Task
			producer.enqueueFn = func(_ context.Context, task queue.Task) error {
				tasks = append(tasks, task)
				return nil
			}

			count, err := svc.EnqueueChannels(ctx, 42, []string{"general", "eng"})

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
			Expect(tasks).To(HaveLen(2))
			Expect(tasks[0].TaskType).To(Equal(queue.TaskTypeChannelExtract))
			Expect(tasks[0].UserID).To(Equal(int64(42)))
			Expect(tasks[0].SlackBotToken).To(Equal("xoxb-test"))
			Expect(tasks[0].Channel).To(Equal("general"))
			Expect(tasks[0].Limit).To(Equal(1000))
			Expect(tasks[1].Channel).To(Equal("eng"))
		})

		It("should report the enqueued count on partial failure", func() {
			producer.enqueueFn = func(_ context.Context, task queue.Task) error {
				if task.Channel == "eng" {
					return errors.New("redis down")
				}
				return nil
			}

			count, err := svc.EnqueueChannels(ctx, 42, []string{"general", "eng", "ops"})

			Expect(err).To(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Context("when the user has no Slack bot token", func() {
		It("should return ErrNoSlackToken", func() {
			profiles.getByUserIDFn = func(_ context.Context, userID int64) (*model.Profile, error) {
				return &model.Profile{UserID: userID}, nil
			}

			_, err := svc.EnqueueChannels(ctx, 42, []string{"general"})

			Expect(err).To(MatchError(service.ErrNoSlackToken))
			Expect(producer.enqueueCalls).To(BeZero())
		})

		It("should treat a missing profile the same way", func() {
			profiles.getByUserIDFn = func(_ context.Context, _ int64) (*model.Profile, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.EnqueueChannels(ctx, 42, []string{"general"})

			Expect(err).To(MatchError(service.ErrNoSlackToken))
		})
	})

	Context("when no channels are requested", func() {
		It("should return ErrNoChannels", func() {
			_, err := svc.EnqueueChannels(ctx, 42, nil)

			Expect(err).To(MatchError(service.ErrNoChannels))
		})
	})
})
