package controllers

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var (
	ErrMissingCustomerFields    = &CustomError{"Missing required fields: name, tax_no, ledger_type"}
	ErrMissingDeclarationFields = &CustomError{"Missing required fields: customer_id, type, month, year"}
	ErrInvalidMonth             = &CustomError{"month must be between 1 and 12"}
	ErrInvalidStatus            = &CustomError{"status must be Pending or Completed"}
	ErrInvalidCompletedAt       = &CustomError{"completed_at is not a valid timestamp"}
	// ErrLedgerUnresolved: beyanname için ne istekte ne de müşteri
	// kaydında defter türü bulunabildi. Tutarsız kayıt sessizce
	// oluşturulmaz, istek 500 ile reddedilir.
	ErrLedgerUnresolved = &CustomError{"ledger_type could not be resolved; customer not found and no ledger_type supplied"}
)
