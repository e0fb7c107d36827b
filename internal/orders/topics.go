package orders

import "strconv"

// All order lifecycle events share one topic; consumers filter on the
// x-event-type header.
const TopicOrderEvents = "merch.order.events"

// Partition key = order id, so every event for one order keeps its order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
