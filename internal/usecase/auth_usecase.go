package usecase

import (
	"context"
	"errors"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/token"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//400 email重複
	ErrEmailAlreadyExists = errors.New("email already in use")
	//400 メール不明とパスワード不一致は区別しない（アカウントの有無を漏らさない）
	ErrInvalidCredentials = errors.New("invalid credentials")
	//403 署名不正・期限切れ・ローテーション済みの再利用
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	//500 DB接続などの一時障害。認証エラーと混ぜない
	ErrStoreUnavailable = errors.New("store unavailable")
	//500
	ErrInternal = errors.New("internal error")
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string, name string) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

// JWTの署名・検証の約束（実体はtoken.Codec）
type TokenCodec interface {
	SignAccess(userID string) (string, error)
	SignRefresh(userID string) (string, error)
	VerifyAccess(raw string) (token.Claims, error)
	VerifyRefresh(raw string) (token.Claims, error)
}

// UUID等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// handlerがcookie/JSONに詰めるトークンの組
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthUsecaseはログイン・ローテーション・登録を編成する
// リフレッシュトークンの状態はすべてrtRepo越しに触る（リクエストをまたいで持たない）
type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	rtRepo    repository.RefreshTokenRepository
	txm       repository.TransactionManager
	codec     TokenCodec
	hasher    PasswordHasher
	verifier  PasswordVerifier
	idGen     IDGenerator
	clock     Clock
	validator AuthValidator
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	txm repository.TransactionManager,
	codec TokenCodec,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	idGen IDGenerator,
	clock Clock,
	validator AuthValidator,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		rtRepo:    rtRepo,
		txm:       txm,
		codec:     codec,
		hasher:    hasher,
		verifier:  verifier,
		idGen:     idGen,
		clock:     clock,
		validator: validator,
	}
}

// Registerは会員登録
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (model.PublicUser, error) {
	var out model.PublicUser

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, in.Email, in.Password, in.Name); err != nil {
		return out, ErrValidation
	}

	//email重複チェック
	existing, err := u.users.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return out, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, ErrStoreUnavailable
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, ErrInternal
	}

	now := u.clock.Now()

	user := &model.User{
		ID:           u.idGen.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: pwHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.users.Create(ctx, user); err != nil {
		return out, ErrStoreUnavailable
	}

	//返すのは公開用の射影だけ（ハッシュは返さない）
	return user.Public(), nil
}

// Loginはパスワード認証してトークンの組を発行する
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	var pair TokenPair

	//入力検証
	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return pair, ErrInvalidCredentials
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			//メール不明もパスワード不一致と同じエラー
			return pair, ErrInvalidCredentials
		}
		return pair, ErrStoreUnavailable
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return pair, ErrInvalidCredentials
	}

	//トークン発行とrefreshレコード保存
	pair, rt, err := u.issuePair(user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return TokenPair{}, ErrStoreUnavailable
	}

	return pair, nil
}

// Refreshはローテーションの本体
// consume→createは1トランザクション。同じトークンの同時リクエストは1つだけ成功する
func (u *AuthUsecase) Refresh(ctx context.Context, rawRefresh string) (TokenPair, error) {
	var pair TokenPair

	//署名と期限の検証。失敗理由は呼び出し側へ漏らさない
	claims, err := u.codec.VerifyRefresh(rawRefresh)
	if err != nil {
		return pair, ErrInvalidRefreshToken
	}

	//DB照合。レコードが無ければローテーション済みか偽造
	rt, err := u.rtRepo.FindLive(ctx, claims.UserID, repository.HashToken(rawRefresh))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return pair, ErrInvalidRefreshToken
		}
		return pair, ErrStoreUnavailable
	}

	//期限切れレコードは残っていても無効。掃除して拒否
	if rt.Expired(u.clock.Now()) {
		_, _ = u.rtRepo.Consume(ctx, rt.ID)
		return pair, ErrInvalidRefreshToken
	}

	//新しい組を先に作る（署名はDBを触らない）
	pair, newRT, err := u.issuePair(claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}

	//旧レコードの削除と新レコードの保存をまとめる
	//Consumeが0件なら他のリクエストに先を越された
	err = u.txm.WithinTx(ctx, func(r repository.TxRepos) error {
		ok, err := r.RefreshTokens().Consume(ctx, rt.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidRefreshToken
		}
		return r.RefreshTokens().Create(ctx, newRT)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, ErrStoreUnavailable
	}

	return pair, nil
}

// Logoutは提示されたrefreshトークンを失効させる
// 既に消えていても成功扱い（冪等）
func (u *AuthUsecase) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}

	claims, err := u.codec.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil
	}

	rt, err := u.rtRepo.FindLive(ctx, claims.UserID, repository.HashToken(rawRefresh))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil
		}
		return ErrStoreUnavailable
	}

	if _, err := u.rtRepo.Consume(ctx, rt.ID); err != nil {
		return ErrStoreUnavailable
	}

	return nil
}

// Meはガードが解決したidのユーザーを返す
func (u *AuthUsecase) Me(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.PublicUser{}, ErrInvalidCredentials
		}
		return model.PublicUser{}, ErrStoreUnavailable
	}

	return user.PublicWithName(), nil
}

// issuePairはaccess/refreshの組と、保存用のrefreshレコードを作る
// expiresAtは発行時刻+RefreshTokenTTLに揃える（JWTのexpと同じ）
func (u *AuthUsecase) issuePair(userID string) (TokenPair, *model.RefreshToken, error) {
	accessToken, err := u.codec.SignAccess(userID)
	if err != nil {
		return TokenPair{}, nil, ErrInternal
	}

	refreshToken, err := u.codec.SignRefresh(userID)
	if err != nil {
		return TokenPair{}, nil, ErrInternal
	}

	now := u.clock.Now()

	rt := &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    userID,
		TokenHash: repository.HashToken(refreshToken),
		ExpiresAt: now.Add(u.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}

	pair := TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	return pair, rt, nil
}
