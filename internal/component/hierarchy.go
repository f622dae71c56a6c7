package component

import "github.com/arpgproto/arpg/internal/core/ecs"

// Parent links an entity to the node it is nested under.
type Parent struct {
	ID ecs.EntityID
}

// Children lists the nodes nested directly under an entity.
type Children struct {
	IDs []ecs.EntityID
}

// Remove drops id from the list, keeping order.
func (c *Children) Remove(id ecs.EntityID) {
	for i, child := range c.IDs {
		if child == id {
			c.IDs = append(c.IDs[:i], c.IDs[i+1:]...)
			return
		}
	}
}
