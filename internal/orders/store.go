package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/awsx"
)

var (
	// ErrNotFound means no order exists under the given id.
	ErrNotFound = errors.New("order not found")
	// ErrConflict means a concurrent edit changed the order between our read
	// and write; the caller should refetch and retry.
	ErrConflict = errors.New("order was modified concurrently")
	// ErrPrecondition means the order's current state does not allow the
	// requested operation.
	ErrPrecondition = errors.New("order state does not allow this operation")
	// ErrNotCOD means an admin tried to edit payment status on an order whose
	// payment is gateway-driven.
	ErrNotCOD = errors.New("payment status is gateway-driven for non-cod orders")
	// ErrLabelExists means a shipping label was already issued for the order.
	ErrLabelExists = errors.New("shipping label already issued")
)

// Stats summarizes the fulfillment queue for the dashboard.
type Stats struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"byStatus"`
	AwaitingLabel int            `json:"awaitingLabel"`
}

// Store encapsulates operations on the orders table. All mutations are
// conditional on the document version read at the start of the call, and all
// of them bump the version, refresh updated_at and append one history entry.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// Put writes a full order document. Checkout is the normal producer of
// orders; this exists for seeding and tests.
func (s *Store) Put(ctx context.Context, o *Order) error {
	if err := ValidateStatus(o.Status); err != nil {
		return err
	}
	if err := ValidatePaymentStatus(o.PaymentStatus); err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// OverrideStatus is the generic admin path: any member of the status enum may
// be set regardless of the current status. Every use lands in the order's
// history with an admin-override note, mirroring how emergency overrides are
// meant to be auditable rather than silent.
func (s *Store) OverrideStatus(ctx context.Context, orderID, newStatus, actor, reason string) (*Order, error) {
	if err := ValidateStatus(newStatus); err != nil {
		return nil, err
	}
	cur, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}

	note := "admin override"
	if reason != "" {
		note += ": " + reason
	}
	entry := HistoryEntry{
		From:  cur.Status,
		To:    newStatus,
		Actor: actor,
		Note:  note,
		At:    s.nowFunc().UTC(),
	}

	return s.update(ctx, orderID, updateSpec{
		expr: "SET #s = :st, updated_at = :ua, #v = :nv, history = list_append(if_not_exists(history, :empty), :he)",
		values: map[string]types.AttributeValue{
			":st": &types.AttributeValueMemberS{Value: newStatus},
		},
		entry:   entry,
		version: cur.Version,
	})
}

// ApplyAction performs one gated fulfillment transition. Label issuance goes
// through AttachShippingLabel instead because it carries label data.
func (s *Store) ApplyAction(ctx context.Context, orderID, action, actor string) (*Order, error) {
	if err := ValidateAction(action); err != nil {
		return nil, err
	}
	cur, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if !CanPerformAction(cur.Status, action) {
		return nil, fmt.Errorf("%w: %s from %s", ErrPrecondition, action, cur.Status)
	}
	target, err := ActionResult(action)
	if err != nil {
		return nil, err
	}

	entry := HistoryEntry{
		From:  cur.Status,
		To:    target,
		Actor: actor,
		Note:  "fulfillment action " + action,
		At:    s.nowFunc().UTC(),
	}

	// The condition re-checks the gate at write time: the version guard alone
	// already covers it, but an explicit status clause keeps the invariant in
	// the table's own terms.
	cond := "#s = :from"
	values := map[string]types.AttributeValue{
		":from": &types.AttributeValueMemberS{Value: cur.Status},
	}
	if action == ActionCancelOrder {
		cond = "#s <> :sh AND #s <> :dl"
		values = map[string]types.AttributeValue{
			":sh": &types.AttributeValueMemberS{Value: StatusShipped},
			":dl": &types.AttributeValueMemberS{Value: StatusDelivered},
		}
	}
	values[":st"] = &types.AttributeValueMemberS{Value: target}

	return s.update(ctx, orderID, updateSpec{
		expr:    "SET #s = :st, updated_at = :ua, #v = :nv, history = list_append(if_not_exists(history, :empty), :he)",
		cond:    cond,
		values:  values,
		entry:   entry,
		version: cur.Version,
	})
}

// UpdatePaymentStatus edits a cod order's payment status. Any of the five
// values may follow any other; the only hard rule, enforced here and not just
// in the UI, is that non-cod orders are read-only for admins.
func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID, newPS, paymentNotes, collectedBy string) (*Order, error) {
	if err := ValidatePaymentStatus(newPS); err != nil {
		return nil, err
	}
	cur, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if cur.PaymentMethod != MethodCOD {
		return nil, ErrNotCOD
	}

	if collectedBy == "" {
		collectedBy = "Admin"
	}
	note := fmt.Sprintf("Payment status updated to %s by %s", newPS, collectedBy)
	if paymentNotes != "" {
		note += "; " + paymentNotes
	}
	entry := HistoryEntry{
		From:  cur.PaymentStatus,
		To:    newPS,
		Actor: collectedBy,
		Note:  note,
		At:    s.nowFunc().UTC(),
	}

	return s.update(ctx, orderID, updateSpec{
		expr: "SET payment_status = :ps, updated_at = :ua, #v = :nv, history = list_append(if_not_exists(history, :empty), :he)",
		cond: "payment_method = :cod",
		values: map[string]types.AttributeValue{
			":ps":  &types.AttributeValueMemberS{Value: newPS},
			":cod": &types.AttributeValueMemberS{Value: MethodCOD},
		},
		entry:   entry,
		version: cur.Version,
	})
}

// AttachShippingLabel persists an issued label and moves the order to
// shipped. The write is conditional on the order still being in processing
// with no label attached, so the precondition holds even if the UI guard was
// bypassed or two admins raced.
func (s *Store) AttachShippingLabel(ctx context.Context, orderID string, label ShippingLabel, actor string) (*Order, error) {
	cur, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if cur.TrackingNumber != "" {
		return nil, ErrLabelExists
	}
	if cur.Status != StatusProcessing {
		return nil, fmt.Errorf("%w: label issuance requires processing, order is %s", ErrPrecondition, cur.Status)
	}

	now := s.nowFunc().UTC()
	entry := HistoryEntry{
		From:  cur.Status,
		To:    StatusShipped,
		Actor: actor,
		Note:  fmt.Sprintf("shipping label %s issued (%s %s, tracking %s)", label.LabelID, label.Carrier, label.Service, label.TrackingNumber),
		At:    now,
	}

	labelAV, err := attributevalue.Marshal(label)
	if err != nil {
		return nil, fmt.Errorf("marshal label: %w", err)
	}

	expr := "SET shipping_label = :lb, tracking_number = :tn, shipping_carrier = :sc, shipping_service = :ss, shipped_at = :sa, #s = :st, updated_at = :ua, #v = :nv, history = list_append(if_not_exists(history, :empty), :he)"
	values := map[string]types.AttributeValue{
		":lb": labelAV,
		":tn": &types.AttributeValueMemberS{Value: label.TrackingNumber},
		":sc": &types.AttributeValueMemberS{Value: label.Carrier},
		":ss": &types.AttributeValueMemberS{Value: label.Service},
		":sa": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		":st": &types.AttributeValueMemberS{Value: StatusShipped},
	}
	if label.EstimatedDelivery != nil {
		expr += ", estimated_delivery = :ed"
		values[":ed"] = &types.AttributeValueMemberS{Value: label.EstimatedDelivery.UTC().Format(time.RFC3339)}
	}

	return s.update(ctx, orderID, updateSpec{
		expr: expr,
		cond: "#s = :proc AND attribute_not_exists(tracking_number)",
		values: mergeValues(values, map[string]types.AttributeValue{
			":proc": &types.AttributeValueMemberS{Value: StatusProcessing},
		}),
		entry:   entry,
		version: cur.Version,
	})
}

// ListFulfillment scans orders whose status is in the given set and computes
// queue stats. An empty set means the default fulfillment queue: confirmed,
// processing and shipped orders.
func (s *Store) ListFulfillment(ctx context.Context, statuses []string) ([]Order, Stats, error) {
	if len(statuses) == 0 {
		statuses = []string{StatusConfirmed, StatusProcessing, StatusShipped}
	}
	for _, st := range statuses {
		if err := ValidateStatus(st); err != nil {
			return nil, Stats{}, err
		}
	}

	filter := ""
	values := map[string]types.AttributeValue{}
	for i, st := range statuses {
		ph := ":s" + strconv.Itoa(i)
		if i > 0 {
			filter += " OR "
		}
		filter += "#s = " + ph
		values[ph] = &types.AttributeValueMemberS{Value: st}
	}

	var out []Order
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:                 &s.tableName,
			FilterExpression:          &filter,
			ExpressionAttributeNames:  map[string]string{"#s": "status"},
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, Stats{}, fmt.Errorf("scan orders: %w", err)
		}
		var page []Order
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, Stats{}, fmt.Errorf("unmarshal orders: %w", err)
		}
		out = append(out, page...)
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	stats := Stats{Total: len(out), ByStatus: map[string]int{}}
	for _, o := range out {
		stats.ByStatus[o.Status]++
		if o.Status == StatusProcessing && o.TrackingNumber == "" {
			stats.AwaitingLabel++
		}
	}
	return out, stats, nil
}

// MarkNotified stamps the order with the last lifecycle event the customer
// was notified about. The write is deliberately unconditional and does not
// bump the version: it is a worker-side marker, not an admin edit, and it
// must not conflict with one.
func (s *Store) MarkNotified(ctx context.Context, orderID, event string) error {
	now := s.nowFunc().UTC()
	expr := "SET notified_at = :na, last_notification = :ev"
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: &expr,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":na": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":ev": &types.AttributeValueMemberS{Value: event},
		},
	})
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

// updateSpec carries one conditional mutation. cond holds the operation's
// extra clauses; the version guard, the shared placeholders (:ua, :nv, :v,
// :he, :empty) and the #s/#v aliases are filled in by update.
type updateSpec struct {
	expr    string
	cond    string
	values  map[string]types.AttributeValue
	entry   HistoryEntry
	version int64
}

func (s *Store) update(ctx context.Context, orderID string, spec updateSpec) (*Order, error) {
	now := s.nowFunc().UTC()

	// Orders persisted by checkout before versioning have no version
	// attribute and read back as 0; the guard must accept the absent
	// attribute or such orders could never be mutated again.
	cond := "#v = :v"
	if spec.version == 0 {
		cond = "(attribute_not_exists(#v) OR #v = :v)"
	}
	if spec.cond != "" {
		cond += " AND " + spec.cond
	}

	entryList, err := attributevalue.MarshalList([]HistoryEntry{spec.entry})
	if err != nil {
		return nil, fmt.Errorf("marshal history entry: %w", err)
	}

	values := mergeValues(spec.values, map[string]types.AttributeValue{
		":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		":nv":    &types.AttributeValueMemberN{Value: strconv.FormatInt(spec.version+1, 10)},
		":v":     &types.AttributeValueMemberN{Value: strconv.FormatInt(spec.version, 10)},
		":he":    &types.AttributeValueMemberL{Value: entryList},
		":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
	})

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &spec.expr,
		ConditionExpression:       &cond,
		ExpressionAttributeNames:  map[string]string{"#s": "status", "#v": "version"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// The state gate was re-checked from a fresh read just before the
			// write, so a failed condition here means a concurrent edit.
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	var updated Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}
	return &updated, nil
}

func mergeValues(dst, src map[string]types.AttributeValue) map[string]types.AttributeValue {
	if dst == nil {
		dst = map[string]types.AttributeValue{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
