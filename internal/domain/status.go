package domain

// orderTransitions es la tabla de transiciones legales. delivered y cancelled
// son terminales; cancelled es alcanzable desde cualquier estado no terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusPreparing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// NextStatuses lista los estados alcanzables desde s.
func NextStatuses(s OrderStatus) []OrderStatus {
	out := make([]OrderStatus, len(orderTransitions[s]))
	copy(out, orderTransitions[s])
	return out
}

// Exportable indica si la orden entra en la planilla del courier.
func (s OrderStatus) Exportable() bool {
	switch s {
	case OrderStatusPaid, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}
