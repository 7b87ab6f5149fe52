package api

import (
	"gorm.io/gorm"

	"github.com/stratoview/cloudsync/pkg/manager"
	"github.com/stratoview/cloudsync/pkg/reporting"
	"github.com/stratoview/cloudsync/pkg/syncer"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	db        *gorm.DB
	syncer    *syncer.Syncer
	reporter  *reporting.Reporter
	customers *manager.CustomerManager
}

func NewServer(db *gorm.DB, s *syncer.Syncer) *Server {
	return &Server{
		db:        db,
		syncer:    s,
		reporter:  reporting.New(db),
		customers: manager.NewCustomerManager(db),
	}
}
