package domain

import "context"

// TxManager runs a function inside a database transaction. The tx handle is
// passed opaquely so repositories can accept either a pool or a transaction
// without the domain depending on the driver. Returning an error rolls the
// transaction back; returning nil commits it.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx any) error) error
}
