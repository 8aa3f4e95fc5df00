package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Stable field identifiers of the two questions the workflow answers.
// Human labels are bilingual and unstable; the identifiers are not.
const (
	fieldFilledInPerson    = "select_1584240106785" // did the student fill this in personally
	fieldHonestyCommitment = "select_1582538939790" // honesty commitment
)

const (
	answerFilledInPerson    = "是"
	answerHonestyCommitment = "是 Yes"
)

var clockAnswers = map[string]string{
	fieldFilledInPerson:    answerFilledInPerson,
	fieldHonestyCommitment: answerHonestyCommitment,
}

// Clock performs exactly one check-in attempt over an authenticated
// session: business lookup, eligibility window check, form instance
// fetch, field patch, submit, and echo verification. It does not retry.
func (c *Client) Clock(ctx context.Context) error {
	biz, err := c.fetchCurrentBusiness(ctx)
	if err != nil {
		return err
	}

	node, ok := biz.ownerNode()
	if !ok {
		return fmt.Errorf("%w: owner node missing from business time list", ErrUnexpectedPayload)
	}

	now := c.now()

	start, ok := parsePortalTime(node.StartDate, c.loc)
	if !ok || start.After(now) {
		return ErrNotYetOpen
	}

	deadlineRaw := node.EndDate
	if deadlineRaw == "" {
		deadlineRaw = biz.EndTime
	}
	deadline, ok := parsePortalTime(deadlineRaw, c.loc)
	if !ok || deadline.Before(now) {
		return ErrWindowExpired
	}

	instance, err := c.fetchFormInstance(ctx, biz.ID.String())
	if err != nil {
		return err
	}

	if instance.Editable == nil || !*instance.Editable {
		return ErrClockForbidden
	}

	patched, err := patchFormData(instance.FormData)
	if err != nil {
		return err
	}

	echoed, err := c.submitForm(ctx, instance.ID.String(), patched)
	if err != nil {
		return err
	}

	if err := verifyEcho(echoed); err != nil {
		return err
	}

	c.log.Info("check-in verified",
		zap.String("business_id", biz.ID.String()),
		zap.String("instance_id", instance.ID.String()),
	)
	return nil
}

func (c *Client) fetchCurrentBusiness(ctx context.Context) (*business, error) {
	resp, err := c.get(ctx, c.http, c.eps.BusinessNow, c.eps.AppReferer)
	if err != nil {
		return nil, fmt.Errorf("fetch current business: %w", err)
	}
	defer drain(resp)

	var payload businessNowResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode business lookup: %v", ErrUnexpectedPayload, err)
	}

	if len(payload.Data) == 0 || payload.Data[0].Business == nil {
		return nil, ErrNoOpenBusiness
	}

	biz := payload.Data[0].Business
	if biz.ID.String() == "" {
		return nil, fmt.Errorf("%w: business id missing", ErrUnexpectedPayload)
	}

	return biz, nil
}

func (c *Client) fetchFormInstance(ctx context.Context, businessID string) (*formInstance, error) {
	resp, err := c.get(ctx, c.http, fmt.Sprintf(c.eps.FormInstance, businessID), c.eps.AppReferer)
	if err != nil {
		return nil, fmt.Errorf("fetch form instance: %w", err)
	}
	defer drain(resp)

	var payload formInstanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode form instance: %v", ErrUnexpectedPayload, err)
	}

	if payload.Data == nil || payload.Data.ID.String() == "" {
		return nil, fmt.Errorf("%w: form instance missing", ErrUnexpectedPayload)
	}

	return payload.Data, nil
}

// patchFormData sets the two tracked fields to their affirmative values
// and passes every other field through verbatim. The portal may reject
// partial payloads, so the full list is round-tripped.
func patchFormData(fields []json.RawMessage) ([]json.RawMessage, error) {
	patched := make([]json.RawMessage, 0, len(fields))
	for _, raw := range fields {
		name, err := fieldName(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}

		answer, tracked := clockAnswers[name]
		if !tracked {
			patched = append(patched, raw)
			continue
		}

		updated, err := setFieldValue(raw, answer)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}
		patched = append(patched, updated)
	}
	return patched, nil
}

func (c *Client) submitForm(ctx context.Context, instanceID string, fields []json.RawMessage) ([]json.RawMessage, error) {
	body, err := json.Marshal(submitRequest{FormData: fields, PlayerID: "owner"})
	if err != nil {
		return nil, fmt.Errorf("encode form submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf(c.eps.FormSubmit, instanceID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build form submission: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.eps.AppOrigin)
	req.Header.Set("Referer", c.eps.AppReferer)
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit form: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("submit form: unexpected status %d", resp.StatusCode)
	}

	var payload submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode submit response: %v", ErrUnexpectedPayload, err)
	}

	return payload.echoedFormData(), nil
}

// verifyEcho checks the portal's echoed field values against the
// expected affirmatives. A 2xx submit is not sufficient evidence of
// success; the portal may silently drop or partially apply a payload.
func verifyEcho(fields []json.RawMessage) error {
	seen := make(map[string]string, len(clockAnswers))
	for _, raw := range fields {
		name, err := fieldName(raw)
		if err != nil {
			continue
		}
		if _, tracked := clockAnswers[name]; !tracked {
			continue
		}
		value, err := fieldStringValue(raw)
		if err != nil {
			continue
		}
		seen[name] = value
	}

	for name, expected := range clockAnswers {
		if seen[name] != expected {
			return fmt.Errorf("%w: field %s echoed %q", ErrClockValidationFailed, name, seen[name])
		}
	}
	return nil
}
