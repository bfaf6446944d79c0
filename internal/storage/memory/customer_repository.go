package memory

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// CustomerRepository — in-memory реализация CustomerDataProxy.
type CustomerRepository struct {
	rows   *table[domain.Customer]
	logger *log.Entry
}

// NewCustomerRepository возвращает репозиторий клиентов поверх store.
func NewCustomerRepository(store *Store, logger *log.Entry) *CustomerRepository {
	if logger == nil {
		logger = log.WithField("component", "customer-repository")
	}
	return &CustomerRepository{rows: store.customers, logger: logger}
}

func (r *CustomerRepository) GetAll(_ context.Context) ([]domain.Customer, error) {
	r.logger.Debug("executing customer get all")
	return r.rows.all(), nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id int64) (domain.Customer, error) {
	r.logger.WithField("customer_id", id).Debug("executing customer get by id")
	return r.rows.find(id)
}

func (r *CustomerRepository) Insert(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.logger.Debug("inserting customer")
	return r.rows.insert(customer), nil
}

func (r *CustomerRepository) Update(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.logger.WithField("customer_id", customer.ID).Debug("updating customer")
	return r.rows.update(customer)
}

func (r *CustomerRepository) Delete(_ context.Context, id int64) error {
	r.logger.WithField("customer_id", id).Debug("deleting customer")
	_, err := r.rows.remove(id)
	return err
}

var _ domain.CustomerDataProxy = (*CustomerRepository)(nil)
