package service

import (
	"cerium.app/cerium/core/config"
	"cerium.app/cerium/internal/mailer"
	"cerium.app/cerium/internal/queue"
	"cerium.app/cerium/internal/retriever/knowledge"
	"cerium.app/cerium/internal/store"
)

type Services struct {
	stores   *store.Stores
	mail     mailer.Mailer
	producer queue.Producer
	cfg      config.Config
}

func NewServices(stores *store.Stores, mail mailer.Mailer, producer queue.Producer, cfg config.Config) *Services {
	return &Services{
		stores:   stores,
		mail:     mail,
		producer: producer,
		cfg:      cfg,
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.stores.Sessions(), s.cfg.WorkOS)
}

func (s *Services) Users() UserService {
	return NewUserService(s.stores.Users(), s.stores.Sessions(), s.stores.Conversations())
}

func (s *Services) Organizations() OrganizationService {
	return NewOrganizationService(s.stores.Organizations())
}

func (s *Services) Invitations() InvitationService {
	return NewInvitationService(s.stores.Invitations(), s.mail, s.cfg.WebURL)
}

func (s *Services) Profiles() ProfileService {
	return NewProfileService(s.stores.Profiles())
}

func (s *Services) Conversations() ConversationService {
	return NewConversationService(s.stores.Conversations(), s.stores.Messages())
}

func (s *Services) Chat() ChatService {
	return NewChatService(s.stores.Profiles(), knowledge.New(s.cfg.Knowledge), s.cfg.OpenAI)
}

func (s *Services) Extractions() ExtractionService {
	return NewExtractionService(s.stores.Profiles(), s.producer, s.cfg.Extraction)
}
