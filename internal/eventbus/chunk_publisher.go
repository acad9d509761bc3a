package eventbus

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/annel0/worldstream/internal/logging"
	"github.com/annel0/worldstream/internal/world"
)

// Типы событий чанков
const (
	EventChunkLoaded  = "ChunkLoaded"
	EventChunkEvicted = "ChunkEvicted"
)

// ChunkEventPublisher публикует в шину событие на каждую загрузку и выгрузку чанка.
// Реализует world.ChunkObserver.
type ChunkEventPublisher struct {
	bus     EventBus
	timeout time.Duration
	log     *logging.Logger
}

// NewChunkEventPublisher создаёт издателя событий чанков
func NewChunkEventPublisher(bus EventBus) *ChunkEventPublisher {
	return &ChunkEventPublisher{
		bus:     bus,
		timeout: time.Second,
		log:     logging.GetEventLogger(),
	}
}

// ChunkLoaded публикует ChunkLoaded
func (p *ChunkEventPublisher) ChunkLoaded(ev world.ChunkEvent) {
	p.publish(EventChunkLoaded, ev)
}

// ChunkEvicted публикует ChunkEvicted
func (p *ChunkEventPublisher) ChunkEvicted(ev world.ChunkEvent) {
	p.publish(EventChunkEvicted, ev)
}

func (p *ChunkEventPublisher) publish(eventType string, ev world.ChunkEvent) {
	payload, err := json.Marshal(ChunkPayload(ev))
	if err != nil {
		p.log.Error("chunk event %s: %v", eventType, err)
		return
	}

	env := NewEnvelope(eventType, ev.Source, payload)
	env.Priority = 5
	env.Metadata["source"] = ev.Source
	env.Metadata["index"] = strconv.Itoa(ev.Index)
	env.Metadata["entities"] = strconv.Itoa(ev.Entities)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.bus.Publish(ctx, env); err != nil {
		p.log.Warn("не удалось опубликовать %s для чанка %d (%s): %v", eventType, ev.Index, ev.Source, err)
	}
}

// ChunkPayload — полезная нагрузка событий чанков
type ChunkPayload struct {
	Source   string `json:"source"`
	Index    int    `json:"index"`
	Left     int    `json:"left"`
	Right    int    `json:"right"`
	Entities int    `json:"entities"`
}

// DecodeChunkPayload разбирает полезную нагрузку события чанка
func DecodeChunkPayload(env *Envelope) (ChunkPayload, error) {
	var p ChunkPayload
	err := json.Unmarshal(env.Payload, &p)
	return p, err
}
