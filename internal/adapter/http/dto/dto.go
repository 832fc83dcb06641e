package dto

// CreateWalletRequest is the request body for wallet provisioning.
type CreateWalletRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// WalletResponse is the response body for wallet provisioning.
type WalletResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Currency  string `json:"currency"`
	Balance   int64  `json:"balance"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// EntryRequest is the request body for a credit or debit.
type EntryRequest struct {
	Amount    int64   `json:"amount" binding:"required,gt=0"`
	Category  string  `json:"category" binding:"required,tx_category"`
	RelatedTo string  `json:"related_to" binding:"required,max=50"`
	RelatedID *string `json:"related_id,omitempty" binding:"omitempty,max=100"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	FromUserID string `json:"from_user_id" binding:"required,uuid"`
	ToUserID   string `json:"to_user_id" binding:"required,uuid"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

// TransactionResponse is the response body for a single ledger entry.
type TransactionResponse struct {
	ID              string  `json:"id"`
	WalletID        string  `json:"wallet_id"`
	UserID          string  `json:"user_id"`
	Type            string  `json:"type"`
	Amount          int64   `json:"amount"`
	BalanceAfter    int64   `json:"balance_after"`
	Category        string  `json:"category"`
	RelatedTo       string  `json:"related_to"`
	RelatedID       *string `json:"related_id,omitempty"`
	Status          string  `json:"status"`
	TransferID      *string `json:"transfer_id,omitempty"`
	TransactionDate string  `json:"transaction_date"`
}

// TransferResponse is the response body for a completed transfer.
type TransferResponse struct {
	ID                  string `json:"id"`
	FromUserID          string `json:"from_user_id"`
	ToUserID            string `json:"to_user_id"`
	Amount              int64  `json:"amount"`
	Status              string `json:"status"`
	DebitTransactionID  string `json:"debit_transaction_id,omitempty"`
	CreditTransactionID string `json:"credit_transaction_id,omitempty"`
	CreatedAt           string `json:"created_at"`
}

// BalanceResponse is the response body for a balance query.
type BalanceResponse struct {
	UserID   string `json:"user_id"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// HistoryResponse wraps one page of a wallet statement.
type HistoryResponse struct {
	Items         []TransactionResponse `json:"items"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}
