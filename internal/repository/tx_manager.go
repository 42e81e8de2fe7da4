package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	RefreshTokens() RefreshTokenRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// ローテーションのconsume→createを1トランザクションにするために使う
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
