package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/integration/google"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"context"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/gommon/log"
	"strconv"
	"time"
)

const (
	oauthStateTTL      = 10 * time.Minute
	oauthStateAudience = "google-oauth-state"
)

type GoogleCallbackRequest struct {
	Code  string `query:"code" validate:"required"`
	State string `query:"state" validate:"required"`
}

type LoginURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

type UserResponse struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type UserLoginResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *UserResponse `json:"user"`
}

type DefaultUserService struct {
	UserRepo   UserRepository
	PrefRepo   PreferenceRepository
	Validate   *validator.Validate
	OAuth      google.OAuthInterface
	Secret     []byte
	SessionTTL time.Duration
	Clock      utils.Clock
}

func NewUserService(userRepo UserRepository, prefRepo PreferenceRepository, validate *validator.Validate, oauth google.OAuthInterface, secret []byte, sessionTTL time.Duration) *DefaultUserService {
	return &DefaultUserService{
		UserRepo:   userRepo,
		PrefRepo:   prefRepo,
		Validate:   validate,
		OAuth:      oauth,
		Secret:     secret,
		SessionTTL: sessionTTL,
		Clock:      utils.SystemClock{},
	}
}

func (u *DefaultUserService) GetUser(rawId, subId string) (*UserResponse, apierror.ErrorResponse) {
	user, apierr := u.fetchUser(rawId, subId)
	if apierr != nil {
		return nil, apierr
	}

	if user == nil || user.SubUUID != subId {
		return nil, apierror.NotFoundError
	}
	return toUserResponse(user), nil
}

// BeginLogin returns the Google consent URL along with a signed,
// short-lived state the callback must echo back.
func (u *DefaultUserService) BeginLogin() (*LoginURLResponse, apierror.ErrorResponse) {
	if u.OAuth == nil {
		return nil, apierror.OAuthNotConfiguredError
	}

	now := time.UnixMilli(u.Clock.NowUTC()).UTC()
	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{oauthStateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(oauthStateTTL)),
		Issuer:    "appointease",
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.Secret)
	if err != nil {
		log.Errorf("failed to sign oauth state: %v", err)
		return nil, apierror.InternalServerError
	}

	return &LoginURLResponse{AuthURL: u.OAuth.AuthCodeURL(state), State: state}, nil
}

// CompleteLogin finishes the Google flow, upserts the local user and
// issues a session token.
func (u *DefaultUserService) CompleteLogin(ctx context.Context, req *GoogleCallbackRequest) (*UserLoginResponse, apierror.ErrorResponse) {
	if u.OAuth == nil {
		return nil, apierror.OAuthNotConfiguredError
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if err := u.verifyState(req.State); err != nil {
		log.Warnf("rejected oauth state: %v", err)
		return nil, apierror.OAuthStateMismatchError
	}

	profile, err := u.OAuth.Exchange(ctx, req.Code)
	if err != nil {
		log.Errorf("google login failed: %v", err)
		return nil, apierror.OAuthExchangeError
	}

	user, apierr := u.upsertUser(profile)
	if apierr != nil {
		return nil, apierr
	}

	if _, err := u.PrefRepo.GetOrCreate(user.ID); err != nil {
		log.Errorf("failed to create preferences of user %d: %v", user.ID, err)
	}

	token, err := utils.IssueSessionToken(u.Secret, user.SubUUID, time.UnixMilli(u.Clock.NowUTC()).UTC(), u.SessionTTL)
	if err != nil {
		log.Errorf("failed to issue session token: %v", err)
		return nil, apierror.InternalServerError
	}

	return &UserLoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(u.SessionTTL.Seconds()),
		User:        toUserResponse(user),
	}, nil
}

func (u *DefaultUserService) verifyState(state string) error {
	now := func() time.Time { return time.UnixMilli(u.Clock.NowUTC()) }
	_, err := jwt.Parse(state, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return u.Secret, nil
	}, jwt.WithAudience(oauthStateAudience), jwt.WithIssuer("appointease"), jwt.WithExpirationRequired(), jwt.WithTimeFunc(now))
	return err
}

func (u *DefaultUserService) upsertUser(profile *google.Profile) (*entity.User, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindBySub(profile.Sub)
	if err != nil {
		log.Errorf("failed to find user (%s) by sub: %v", profile.Sub, err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		user = &entity.User{SubUUID: profile.Sub}
	}
	user.Email = profile.Email
	user.Name = profile.Name
	if user.Name == "" {
		user.Name = profile.Email
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.AvatarURL = &avatar
	}

	if err := u.UserRepo.Save(user); err != nil {
		log.Errorf("failed to save user (%s): %v", profile.Sub, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func (u *DefaultUserService) fetchUser(rawId, sub string) (*entity.User, apierror.ErrorResponse) {
	if rawId == "@me" {
		return u.fetchBySub(sub)
	}
	return u.fetchByID(rawId)
}

func (u *DefaultUserService) fetchBySub(sub string) (*entity.User, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindBySub(sub)
	if err != nil {
		log.Errorf("failed to find user (%s) by sub: %v", sub, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func (u *DefaultUserService) fetchByID(rawId string) (*entity.User, apierror.ErrorResponse) {
	userId, err := strconv.Atoi(rawId)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("id", "int32")
	}
	user, err := u.UserRepo.FindByID(userId)
	if err != nil {
		log.Errorf("failed to find user (%s) by id: %v", rawId, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

// ErrInvalidSession is returned by Authenticate for unusable tokens.
var ErrInvalidSession = errors.New("invalid session token")

// Authenticate verifies a bearer session token.
func (u *DefaultUserService) Authenticate(raw string) (*utils.TokenData, error) {
	data, err := utils.ParseSessionToken(u.Secret, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return data, nil
}

func toUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		CreatedAt: utils.FormatEpoch(user.CreatedAt),
		UpdatedAt: utils.FormatEpoch(user.UpdatedAt),
	}
}
