package repository

// Repos agrupa los repositorios atados a una misma unidad atómica (pool o tx).
type Repos struct {
	Shipments    ShipmentRepository
	Products     ProductRepository
	Stocks       StockRepository
	Transactions TransactionRepository
	Debts        DebtRepository
	Rates        ExchangeRateRepository
}
