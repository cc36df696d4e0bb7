package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/capitalize-ai/support-router/internal/model"
)

// Action kinds understood by the executor.
const (
	ActionCheckOrderStatus = "CHECK_ORDER_STATUS"
	ActionUpdateAccount    = "UPDATE_ACCOUNT"
	ActionCancelOrder      = "CANCEL_ORDER"
	ActionRefundRequest    = "REFUND_REQUEST"
	ActionResetPassword    = "RESET_PASSWORD"
	ActionUpdateShipping   = "UPDATE_SHIPPING"
	ActionTrackPackage     = "TRACK_PACKAGE"
)

const unknownActionText = "Action type not recognized. Please contact support for assistance with this request."

// Demo placeholders used when an entity is missing from the message.
const (
	demoOrderID  = "12345"
	demoEmail    = "your registered email"
	demoTracking = "FDX1234567890"
)

var (
	orderIDRe  = regexp.MustCompile(`#?(\d{5,})`)
	emailRe    = regexp.MustCompile(`([a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+)`)
	trackingRe = regexp.MustCompile(`[A-Z0-9]{10,}`)
)

// MissingParameterError reports an entity the message did not contain.
type MissingParameterError struct {
	Action    string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s needs a %s. Please include it in your message.", e.Action, e.Parameter)
}

// Entities are the values extracted from the raw customer message.
type Entities struct {
	action   string
	orderID  string
	email    string
	tracking string
	demo     bool
}

// ExtractEntities scans message for an order id, an email address and a
// tracking number. With demo set, missing values resolve to placeholders.
func ExtractEntities(action, message string, demo bool) Entities {
	e := Entities{action: action, demo: demo}
	if m := orderIDRe.FindStringSubmatch(message); m != nil {
		e.orderID = m[1]
	}
	if m := emailRe.FindStringSubmatch(message); m != nil {
		e.email = m[1]
	}
	e.tracking = trackingRe.FindString(message)
	return e
}

// OrderID returns the order id.
func (e Entities) OrderID() (string, error) {
	return e.resolve(e.orderID, demoOrderID, "order ID")
}

// Email returns the email address.
func (e Entities) Email() (string, error) {
	return e.resolve(e.email, demoEmail, "email address")
}

// TrackingNumber returns the tracking number.
func (e Entities) TrackingNumber() (string, error) {
	return e.resolve(e.tracking, demoTracking, "tracking number")
}

func (e Entities) resolve(value, placeholder, name string) (string, error) {
	if value != "" {
		return value, nil
	}
	if e.demo {
		return placeholder, nil
	}
	return "", &MissingParameterError{Action: e.action, Parameter: name}
}

// ActionHandler performs one action and returns the text shown to the
// customer.
type ActionHandler func(ctx context.Context, e Entities) (string, error)

// ActionExecutor dispatches normalized action names to handlers.
type ActionExecutor struct {
	handlers map[string]ActionHandler
	demo     bool
	now      func() time.Time
}

// NewActionExecutor creates an executor with the built-in mock handlers.
// demo controls whether missing entities are replaced with placeholders.
func NewActionExecutor(demo bool) *ActionExecutor {
	x := &ActionExecutor{
		handlers: make(map[string]ActionHandler),
		demo:     demo,
		now:      time.Now,
	}
	x.Register(ActionCheckOrderStatus, checkOrderStatus)
	x.Register(ActionUpdateAccount, updateAccount)
	x.Register(ActionCancelOrder, cancelOrder)
	x.Register(ActionRefundRequest, x.refundRequest)
	x.Register(ActionResetPassword, resetPassword)
	x.Register(ActionUpdateShipping, updateShipping)
	x.Register(ActionTrackPackage, trackPackage)
	return x
}

// Register installs or replaces the handler for an action.
func (x *ActionExecutor) Register(action string, h ActionHandler) {
	x.handlers[NormalizeAction(action)] = h
}

// Execute runs action against message. Unknown actions and missing
// parameters are reported in the result; err is only set for unexpected
// handler failures, including panics.
func (x *ActionExecutor) Execute(ctx context.Context, action, message string) (result model.ActionResult, err error) {
	name := NormalizeAction(action)
	h, ok := x.handlers[name]
	if !ok {
		return model.ActionResult{Type: name, Success: false, Error: unknownActionText}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = model.ActionResult{}
			err = fmt.Errorf("action %s panicked: %v", name, r)
		}
	}()

	data, err := h(ctx, ExtractEntities(name, message, x.demo))
	if err != nil {
		var missing *MissingParameterError
		if errors.As(err, &missing) {
			return model.ActionResult{Type: name, Success: false, Error: missing.Error()}, nil
		}
		return model.ActionResult{}, fmt.Errorf("action %s: %w", name, err)
	}
	return model.ActionResult{Type: name, Success: true, Data: data}, nil
}

func checkOrderStatus(_ context.Context, e Entities) (string, error) {
	id, err := e.OrderID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Order #%s Status:
• Status: In Transit
• Shipped: Nov 25, 2024
• Expected Delivery: Nov 28, 2024
• Carrier: FedEx
• Tracking: Track at fedex.com with tracking number FDX%s`, id, id), nil
}

func updateAccount(context.Context, Entities) (string, error) {
	return "Account information has been updated successfully. You will receive a confirmation email shortly.", nil
}

func cancelOrder(_ context.Context, e Entities) (string, error) {
	id, err := e.OrderID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Order #%s has been cancelled successfully.
• Cancellation confirmed
• Refund will be processed within 3-5 business days
• You'll receive an email confirmation`, id), nil
}

func (x *ActionExecutor) refundRequest(_ context.Context, e Entities) (string, error) {
	id, err := e.OrderID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Refund request submitted successfully.
• Reference Number: RF-%06d
• Order #%s
• Refund Amount: Will be calculated based on return
• Processing Time: 5-7 business days after item received`, x.now().UnixMilli()%1_000_000, id), nil
}

func resetPassword(_ context.Context, e Entities) (string, error) {
	email, err := e.Email()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Password reset email has been sent to %s.
• Check your inbox (and spam folder)
• Link expires in 24 hours
• Follow the link to create a new password`, email), nil
}

func updateShipping(_ context.Context, e Entities) (string, error) {
	id, err := e.OrderID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Shipping address update processed for Order #%s.
• Change will be reflected in 15-30 minutes
• You'll receive a confirmation email
• If order already shipped, please contact carrier`, id), nil
}

func trackPackage(_ context.Context, e Entities) (string, error) {
	tracking, err := e.TrackingNumber()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Package Tracking - %s:
• Current Location: Distribution Center, Chicago, IL
• Last Update: Today at 8:45 AM
• Status: Out for Delivery
• Expected Delivery: Today by 8:00 PM
• Track live: fedex.com/tracking`, tracking), nil
}
