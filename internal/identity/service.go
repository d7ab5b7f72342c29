package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cogtypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
)

// cognitoAPI is the slice of the identity-provider client the gateway uses.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	ChangePassword(ctx context.Context, params *cip.ChangePasswordInput, optFns ...func(*cip.Options)) (*cip.ChangePasswordOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	UpdateUserAttributes(ctx context.Context, params *cip.UpdateUserAttributesInput, optFns ...func(*cip.Options)) (*cip.UpdateUserAttributesOutput, error)
}

// Service is the identity gateway: every call is a pass-through to the
// provider with input validation and error-taxonomy translation.
type Service struct {
	api      cognitoAPI
	clientID string
}

// NewService creates the identity gateway over the provider client.
func NewService(api cognitoAPI, clientID string) *Service {
	return &Service{api: api, clientID: clientID}
}

// Authenticate exchanges credentials for a token set.
func (s *Service) Authenticate(ctx context.Context, username, password string) (TokenSet, error) {
	out, err := s.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(s.clientID),
		AuthFlow: cogtypes.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return TokenSet{}, translateAuthError(err)
	}

	if out.ChallengeName != "" {
		if out.ChallengeName == cogtypes.ChallengeNameTypeNewPasswordRequired {
			return TokenSet{}, apperr.New(apperr.KindForbidden, "new password required, please reset your password")
		}
		return TokenSet{}, apperr.Newf(apperr.KindBadRequest, "authentication challenge required: %s", out.ChallengeName)
	}

	if out.AuthenticationResult == nil {
		return TokenSet{}, apperr.New(apperr.KindInternal, "unexpected response from identity provider")
	}

	return tokenSetFromResult(out.AuthenticationResult), nil
}

// Refresh exchanges a refresh token for new access and id tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	out, err := s.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(s.clientID),
		AuthFlow: cogtypes.AuthFlowTypeRefreshTokenAuth,
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		var notAuthorized *cogtypes.NotAuthorizedException
		if errors.As(err, &notAuthorized) {
			return TokenSet{}, apperr.New(apperr.KindUnauthorized, "refresh token is invalid or expired")
		}
		return TokenSet{}, apperr.Wrap(apperr.KindInternal, "failed to refresh token", err)
	}

	if out.AuthenticationResult == nil {
		return TokenSet{}, apperr.New(apperr.KindInternal, "unexpected response from identity provider")
	}

	ts := tokenSetFromResult(out.AuthenticationResult)
	ts.RefreshToken = "" // the provider does not rotate refresh tokens
	return ts, nil
}

// CompleteNewPasswordChallenge finishes the first-login flow: the temporary
// password must still trigger the provider's challenge, otherwise the caller
// either mistyped it or has already completed first login.
func (s *Service) CompleteNewPasswordChallenge(ctx context.Context, username, temporaryPassword, newPassword string) (TokenSet, error) {
	out, err := s.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(s.clientID),
		AuthFlow: cogtypes.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": temporaryPassword,
		},
	})
	if err != nil {
		return TokenSet{}, translateChallengeError(err)
	}

	if out.ChallengeName != cogtypes.ChallengeNameTypeNewPasswordRequired {
		return TokenSet{}, apperr.New(apperr.KindBadRequest, "no password reset required or temporary password is incorrect")
	}

	challenge, err := s.api.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ClientId:      aws.String(s.clientID),
		ChallengeName: cogtypes.ChallengeNameTypeNewPasswordRequired,
		Session:       out.Session,
		ChallengeResponses: map[string]string{
			"USERNAME":     username,
			"NEW_PASSWORD": newPassword,
		},
	})
	if err != nil {
		return TokenSet{}, translateChallengeError(err)
	}
	if challenge.AuthenticationResult == nil {
		return TokenSet{}, apperr.New(apperr.KindInternal, "unexpected response from identity provider")
	}

	return tokenSetFromResult(challenge.AuthenticationResult), nil
}

// ChangePassword changes the caller's own password.
func (s *Service) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	_, err := s.api.ChangePassword(ctx, &cip.ChangePasswordInput{
		AccessToken:      aws.String(accessToken),
		PreviousPassword: aws.String(oldPassword),
		ProposedPassword: aws.String(newPassword),
	})
	if err == nil {
		return nil
	}

	var (
		notAuthorized   *cogtypes.NotAuthorizedException
		invalidPassword *cogtypes.InvalidPasswordException
		limitExceeded   *cogtypes.LimitExceededException
	)
	switch {
	case errors.As(err, &notAuthorized):
		return apperr.New(apperr.KindUnauthorized, "current password is incorrect")
	case errors.As(err, &invalidPassword):
		return apperr.New(apperr.KindBadRequest, "new password does not meet requirements")
	case errors.As(err, &limitExceeded):
		return apperr.New(apperr.KindRateLimited, "too many attempts, please try again later")
	default:
		return apperr.Wrap(apperr.KindInternal, "failed to change password", err)
	}
}

// ForgotPassword starts the reset flow. Unknown usernames get the same
// generic message as known ones so the endpoint cannot be used to enumerate
// accounts.
func (s *Service) ForgotPassword(ctx context.Context, username string) (Delivery, error) {
	out, err := s.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId: aws.String(s.clientID),
		Username: aws.String(username),
	})
	if err != nil {
		var (
			userNotFound  *cogtypes.UserNotFoundException
			limitExceeded *cogtypes.LimitExceededException
			invalidParam  *cogtypes.InvalidParameterException
		)
		switch {
		case errors.As(err, &userNotFound):
			return Delivery{
				Message:        "If the email exists, a reset code has been sent",
				DeliveryMedium: "EMAIL",
			}, nil
		case errors.As(err, &limitExceeded):
			return Delivery{}, apperr.New(apperr.KindRateLimited, "too many attempts, please try again later")
		case errors.As(err, &invalidParam):
			return Delivery{}, apperr.New(apperr.KindBadRequest, "invalid email address")
		default:
			return Delivery{}, apperr.Wrap(apperr.KindInternal, "failed to initiate password reset", err)
		}
	}

	destination := "your email"
	medium := "EMAIL"
	if d := out.CodeDeliveryDetails; d != nil {
		if d.Destination != nil {
			destination = *d.Destination
		}
		if d.DeliveryMedium != "" {
			medium = string(d.DeliveryMedium)
		}
	}

	return Delivery{
		Message:        fmt.Sprintf("Password reset code sent to %s", destination),
		DeliveryMedium: medium,
	}, nil
}

// ConfirmReset completes the reset flow with the emailed code.
func (s *Service) ConfirmReset(ctx context.Context, username, confirmationCode, newPassword string) error {
	_, err := s.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(s.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(confirmationCode),
		Password:         aws.String(newPassword),
	})
	if err == nil {
		return nil
	}

	var (
		codeMismatch    *cogtypes.CodeMismatchException
		expiredCode     *cogtypes.ExpiredCodeException
		invalidPassword *cogtypes.InvalidPasswordException
		limitExceeded   *cogtypes.LimitExceededException
	)
	switch {
	case errors.As(err, &codeMismatch):
		return apperr.New(apperr.KindBadRequest, "invalid confirmation code")
	case errors.As(err, &expiredCode):
		return apperr.New(apperr.KindBadRequest, "confirmation code has expired")
	case errors.As(err, &invalidPassword):
		return apperr.New(apperr.KindBadRequest, "new password does not meet requirements")
	case errors.As(err, &limitExceeded):
		return apperr.New(apperr.KindRateLimited, "too many attempts, please try again later")
	default:
		return apperr.Wrap(apperr.KindInternal, "failed to reset password", err)
	}
}

// UpdateProfile updates the caller's name and phone number. At least one
// field must survive trimming.
func (s *Service) UpdateProfile(ctx context.Context, accessToken string, fullName, phoneNumber string) (ProfileUpdate, error) {
	var attrs []cogtypes.AttributeType
	if v := strings.TrimSpace(fullName); v != "" {
		attrs = append(attrs, cogtypes.AttributeType{Name: aws.String("name"), Value: aws.String(v)})
	}
	if v := strings.TrimSpace(phoneNumber); v != "" {
		attrs = append(attrs, cogtypes.AttributeType{Name: aws.String("phone_number"), Value: aws.String(v)})
	}
	if len(attrs) == 0 {
		return ProfileUpdate{}, apperr.New(apperr.KindBadRequest, "please provide at least one field to update (full_name or phone_number)")
	}

	out, err := s.api.UpdateUserAttributes(ctx, &cip.UpdateUserAttributesInput{
		AccessToken:    aws.String(accessToken),
		UserAttributes: attrs,
	})
	if err != nil {
		var (
			notAuthorized *cogtypes.NotAuthorizedException
			invalidParam  *cogtypes.InvalidParameterException
		)
		switch {
		case errors.As(err, &notAuthorized):
			return ProfileUpdate{}, apperr.New(apperr.KindUnauthorized, "not authorized to update attributes")
		case errors.As(err, &invalidParam):
			return ProfileUpdate{}, apperr.New(apperr.KindBadRequest, "invalid attribute value")
		default:
			return ProfileUpdate{}, apperr.Wrap(apperr.KindInternal, "failed to update attributes", err)
		}
	}

	if len(out.CodeDeliveryDetailsList) > 0 {
		return ProfileUpdate{
			Message:              "Attributes updated. Verification code sent for new email.",
			VerificationRequired: true,
		}, nil
	}
	return ProfileUpdate{Message: "User attributes updated successfully"}, nil
}

// UserInfo fetches the caller's provider-side profile.
func (s *Service) UserInfo(ctx context.Context, accessToken string) (UserInfo, error) {
	out, err := s.api.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return UserInfo{}, apperr.Wrap(apperr.KindUnauthorized, "failed to get user info", err)
	}

	info := UserInfo{
		Username:   aws.ToString(out.Username),
		Attributes: make(map[string]string, len(out.UserAttributes)),
	}
	for _, attr := range out.UserAttributes {
		info.Attributes[aws.ToString(attr.Name)] = aws.ToString(attr.Value)
	}
	return info, nil
}

func tokenSetFromResult(result *cogtypes.AuthenticationResultType) TokenSet {
	return TokenSet{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		TokenType:    "Bearer",
		ExpiresIn:    result.ExpiresIn,
	}
}

// translateAuthError maps login failures. Bad password and unknown user get
// the same message so login cannot leak whether an account exists.
func translateAuthError(err error) error {
	var (
		notAuthorized  *cogtypes.NotAuthorizedException
		userNotFound   *cogtypes.UserNotFoundException
		userNotConfirm *cogtypes.UserNotConfirmedException
	)
	switch {
	case errors.As(err, &notAuthorized), errors.As(err, &userNotFound):
		return apperr.New(apperr.KindUnauthorized, "incorrect username or password")
	case errors.As(err, &userNotConfirm):
		return apperr.New(apperr.KindUnauthorized, "user account not confirmed")
	default:
		return apperr.Wrap(apperr.KindInternal, "authentication error", err)
	}
}

func translateChallengeError(err error) error {
	var (
		notAuthorized   *cogtypes.NotAuthorizedException
		invalidPassword *cogtypes.InvalidPasswordException
		userNotFound    *cogtypes.UserNotFoundException
		limitExceeded   *cogtypes.LimitExceededException
	)
	switch {
	case errors.As(err, &notAuthorized):
		return apperr.New(apperr.KindUnauthorized, "incorrect temporary password")
	case errors.As(err, &invalidPassword):
		return apperr.New(apperr.KindBadRequest, "new password does not meet requirements")
	case errors.As(err, &userNotFound):
		return apperr.New(apperr.KindUnauthorized, "incorrect temporary password")
	case errors.As(err, &limitExceeded):
		return apperr.New(apperr.KindRateLimited, "too many attempts, please try again later")
	default:
		return apperr.Wrap(apperr.KindInternal, "failed to complete password challenge", err)
	}
}
