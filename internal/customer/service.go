// Package customer implements the admin-facing customer directory on top
// of the identity provider's user pool. The pool is the system of record:
// no customer data is persisted server-side.
package customer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cogtypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"go.uber.org/zap"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
	"github.com/sjw787/HovverAdminDashboard/internal/notify"
)

var phonePattern = regexp.MustCompile(`^\+[0-9]{7,15}$`)

// directoryAPI is the slice of the identity provider's admin surface the
// directory uses.
type directoryAPI interface {
	AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	AdminUpdateUserAttributes(ctx context.Context, params *cognitoidentityprovider.AdminUpdateUserAttributesInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminUpdateUserAttributesOutput, error)
	AdminSetUserPassword(ctx context.Context, params *cognitoidentityprovider.AdminSetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error)
	AdminAddUserToGroup(ctx context.Context, params *cognitoidentityprovider.AdminAddUserToGroupInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminAddUserToGroupOutput, error)
	AdminGetUser(ctx context.Context, params *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error)
	AdminEnableUser(ctx context.Context, params *cognitoidentityprovider.AdminEnableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminEnableUserOutput, error)
	AdminDisableUser(ctx context.Context, params *cognitoidentityprovider.AdminDisableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error)
	ListUsersInGroup(ctx context.Context, params *cognitoidentityprovider.ListUsersInGroupInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUsersInGroupOutput, error)
	ListUsers(ctx context.Context, params *cognitoidentityprovider.ListUsersInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUsersOutput, error)
}

// welcomeSender delivers the onboarding email. Failures are reported but
// never fail account provisioning.
type welcomeSender interface {
	SendWelcome(ctx context.Context, w notify.Welcome) error
}

// Service provisions and manages customer accounts in the user pool.
type Service struct {
	api           directoryAPI
	mailer        welcomeSender
	poolID        string
	customerGroup string
	logger        *zap.Logger
}

// NewService wires the directory against the provider admin API.
func NewService(api directoryAPI, mailer welcomeSender, poolID, customerGroup string, logger *zap.Logger) *Service {
	return &Service{
		api:           api,
		mailer:        mailer,
		poolID:        poolID,
		customerGroup: customerGroup,
		logger:        logger,
	}
}

// Create provisions a customer account: a pool user with a suppressed
// provider invite, a generated temporary password, membership in the
// customer group, and a welcome email carrying the credentials.
func (s *Service) Create(ctx context.Context, email, name, phone string) (*CreateResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if email == "" || name == "" {
		return nil, apperr.New(apperr.KindBadRequest, "email and name are required")
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, apperr.New(apperr.KindBadRequest, "phone number must be in international format, e.g. +15551234567")
	}

	tempPassword, err := GenerateTemporaryPassword()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate temporary password", err)
	}

	attrs := []cogtypes.AttributeType{
		{Name: aws.String("email"), Value: aws.String(email)},
		{Name: aws.String("email_verified"), Value: aws.String("true")},
		{Name: aws.String("name"), Value: aws.String(name)},
	}
	if phone != "" {
		attrs = append(attrs,
			cogtypes.AttributeType{Name: aws.String("phone_number"), Value: aws.String(phone)},
			cogtypes.AttributeType{Name: aws.String("phone_number_verified"), Value: aws.String("true")},
		)
	}

	created, err := s.api.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:        aws.String(s.poolID),
		Username:          aws.String(email),
		UserAttributes:    attrs,
		MessageAction:     cogtypes.MessageActionTypeSuppress,
		TemporaryPassword: aws.String(tempPassword),
	})
	if err != nil {
		return nil, translateDirectoryError(err)
	}
	if created == nil || created.User == nil {
		return nil, apperr.New(apperr.KindInternal, "identity provider returned no user record")
	}
	cust := customerFromUserType(*created.User)

	// The storage partition is keyed by the provider subject, so mirror it
	// into a queryable custom attribute.
	_, err = s.api.AdminUpdateUserAttributes(ctx, &cognitoidentityprovider.AdminUpdateUserAttributesInput{
		UserPoolId: aws.String(s.poolID),
		Username:   aws.String(email),
		UserAttributes: []cogtypes.AttributeType{
			{Name: aws.String("custom:customer_id"), Value: aws.String(cust.ID)},
		},
	})
	if err != nil {
		return nil, translateDirectoryError(err)
	}

	// Non-permanent so the first login forces a password change.
	_, err = s.api.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(s.poolID),
		Username:   aws.String(email),
		Password:   aws.String(tempPassword),
		Permanent:  false,
	})
	if err != nil {
		return nil, translateDirectoryError(err)
	}

	_, err = s.api.AdminAddUserToGroup(ctx, &cognitoidentityprovider.AdminAddUserToGroupInput{
		UserPoolId: aws.String(s.poolID),
		Username:   aws.String(email),
		GroupName:  aws.String(s.customerGroup),
	})
	if err != nil {
		return nil, translateDirectoryError(err)
	}

	notified := true
	if err := s.mailer.SendWelcome(ctx, notify.Welcome{
		Name:              name,
		Email:             email,
		TemporaryPassword: tempPassword,
	}); err != nil {
		notified = false
		s.logger.Warn("welcome email failed, account created anyway",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return &CreateResult{Customer: cust, TemporaryPassword: tempPassword, NotificationSent: notified}, nil
}

// providerPageLimit is the largest page size ListUsersInGroup accepts.
const providerPageLimit = 60

// List returns members of the customer group, at most limit when limit is
// positive. The limit is forwarded to the provider so only the pages
// needed are fetched.
func (s *Service) List(ctx context.Context, limit int) ([]Customer, error) {
	var out []Customer
	var nextToken *string
	for {
		input := &cognitoidentityprovider.ListUsersInGroupInput{
			UserPoolId: aws.String(s.poolID),
			GroupName:  aws.String(s.customerGroup),
			NextToken:  nextToken,
		}
		if limit > 0 {
			remaining := limit - len(out)
			if remaining > providerPageLimit {
				remaining = providerPageLimit
			}
			input.Limit = aws.Int32(int32(remaining))
		}

		page, err := s.api.ListUsersInGroup(ctx, input)
		if err != nil {
			return nil, translateDirectoryError(err)
		}
		for _, u := range page.Users {
			out = append(out, customerFromUserType(u))
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if page.NextToken == nil {
			break
		}
		nextToken = page.NextToken
	}
	return out, nil
}

// Get looks a customer up by their provider subject.
func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	u, err := s.findBySub(ctx, id)
	if err != nil {
		return nil, err
	}
	cust := customerFromUserType(*u)
	return &cust, nil
}

// Update applies a partial update to a customer record. Enabled toggles the
// account, other fields rewrite pool attributes. The refreshed record is
// returned.
func (s *Service) Update(ctx context.Context, id string, upd Update) (*Customer, error) {
	u, err := s.findBySub(ctx, id)
	if err != nil {
		return nil, err
	}
	username := aws.ToString(u.Username)

	var attrs []cogtypes.AttributeType
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperr.New(apperr.KindBadRequest, "name cannot be empty")
		}
		attrs = append(attrs, cogtypes.AttributeType{Name: aws.String("name"), Value: aws.String(name)})
	}
	if upd.Phone != nil {
		phone := strings.TrimSpace(*upd.Phone)
		if phone != "" && !phonePattern.MatchString(phone) {
			return nil, apperr.New(apperr.KindBadRequest, "phone number must be in international format, e.g. +15551234567")
		}
		attrs = append(attrs, cogtypes.AttributeType{Name: aws.String("phone_number"), Value: aws.String(phone)})
	}
	if len(attrs) == 0 && upd.Enabled == nil {
		return nil, apperr.New(apperr.KindBadRequest, "no fields to update")
	}

	if len(attrs) > 0 {
		_, err = s.api.AdminUpdateUserAttributes(ctx, &cognitoidentityprovider.AdminUpdateUserAttributesInput{
			UserPoolId:     aws.String(s.poolID),
			Username:       aws.String(username),
			UserAttributes: attrs,
		})
		if err != nil {
			return nil, translateDirectoryError(err)
		}
	}

	if upd.Enabled != nil {
		if *upd.Enabled {
			_, err = s.api.AdminEnableUser(ctx, &cognitoidentityprovider.AdminEnableUserInput{
				UserPoolId: aws.String(s.poolID),
				Username:   aws.String(username),
			})
		} else {
			_, err = s.api.AdminDisableUser(ctx, &cognitoidentityprovider.AdminDisableUserInput{
				UserPoolId: aws.String(s.poolID),
				Username:   aws.String(username),
			})
		}
		if err != nil {
			return nil, translateDirectoryError(err)
		}
	}

	return s.Get(ctx, id)
}

// ResendWelcome issues a fresh temporary password and resends the welcome
// email, returning the new password alongside the record. Only accounts
// that have never completed a login qualify; confirmed accounts are
// pointed at the password reset flow instead.
func (s *Service) ResendWelcome(ctx context.Context, id string) (*Customer, string, error) {
	u, err := s.findBySub(ctx, id)
	if err != nil {
		return nil, "", err
	}
	username := aws.ToString(u.Username)

	current, err := s.api.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(s.poolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return nil, "", translateDirectoryError(err)
	}
	switch current.UserStatus {
	case cogtypes.UserStatusTypeForceChangePassword, cogtypes.UserStatusTypeResetRequired:
	case cogtypes.UserStatusTypeConfirmed:
		return nil, "", apperr.New(apperr.KindBadRequest, "account is already active; use the password reset flow instead")
	default:
		return nil, "", apperr.Newf(apperr.KindBadRequest, "account status %s does not allow resending the welcome email", current.UserStatus)
	}

	tempPassword, err := GenerateTemporaryPassword()
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to generate temporary password", err)
	}
	_, err = s.api.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(s.poolID),
		Username:   aws.String(username),
		Password:   aws.String(tempPassword),
		Permanent:  false,
	})
	if err != nil {
		return nil, "", translateDirectoryError(err)
	}

	cust := customerFromUserType(*u)
	if err := s.mailer.SendWelcome(ctx, notify.Welcome{
		Name:              cust.Name,
		Email:             cust.Email,
		TemporaryPassword: tempPassword,
	}); err != nil {
		// Unlike creation, the whole point here is the email.
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to send welcome email", err)
	}
	return &cust, tempPassword, nil
}

func (s *Service) findBySub(ctx context.Context, sub string) (*cogtypes.UserType, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return nil, apperr.New(apperr.KindBadRequest, "customer id is required")
	}
	out, err := s.api.ListUsers(ctx, &cognitoidentityprovider.ListUsersInput{
		UserPoolId: aws.String(s.poolID),
		Filter:     aws.String(fmt.Sprintf("sub = %q", sub)),
		Limit:      aws.Int32(1),
	})
	if err != nil {
		return nil, translateDirectoryError(err)
	}
	if len(out.Users) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "customer not found")
	}
	return &out.Users[0], nil
}

func customerFromUserType(u cogtypes.UserType) Customer {
	c := Customer{
		Enabled: u.Enabled,
		Status:  string(u.UserStatus),
	}
	if u.UserCreateDate != nil {
		c.CreatedAt = *u.UserCreateDate
	}
	for _, a := range u.Attributes {
		switch aws.ToString(a.Name) {
		case "sub":
			c.ID = aws.ToString(a.Value)
		case "email":
			c.Email = aws.ToString(a.Value)
		case "name":
			c.Name = aws.ToString(a.Value)
		case "phone_number":
			c.Phone = aws.ToString(a.Value)
		}
	}
	if c.ID == "" {
		c.ID = aws.ToString(u.Username)
	}
	c.Folder = "customers/" + c.ID
	return c
}

func translateDirectoryError(err error) error {
	var exists *cogtypes.UsernameExistsException
	if errors.As(err, &exists) {
		return apperr.New(apperr.KindConflict, "a customer with this email already exists")
	}
	var notFound *cogtypes.UserNotFoundException
	if errors.As(err, &notFound) {
		return apperr.New(apperr.KindNotFound, "customer not found")
	}
	var invalidParam *cogtypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return apperr.New(apperr.KindBadRequest, "invalid customer details")
	}
	var invalidPassword *cogtypes.InvalidPasswordException
	if errors.As(err, &invalidPassword) {
		return apperr.New(apperr.KindBadRequest, "generated password rejected by the identity provider")
	}
	var limited *cogtypes.LimitExceededException
	if errors.As(err, &limited) {
		return apperr.New(apperr.KindRateLimited, "too many requests, please try again later")
	}
	return apperr.Wrap(apperr.KindInternal, "identity provider request failed", err)
}
