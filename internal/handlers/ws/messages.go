package ws

import "errors"

// MessageJoinConversation subscribes the session to a conversation channel so
// it receives typing indicators for the open view. Membership is checked
// against the directory; non-members are refused.
type MessageJoinConversation struct {
	ConversationID uint `json:"conversation_id"`
}

func (msg *MessageJoinConversation) GetType() string {
	return "join-conversation"
}

func (msg *MessageJoinConversation) Process(ctx *MessageContext) error {
	if msg.ConversationID == 0 {
		return errors.New("conversation_id is required")
	}
	isMember, err := ctx.ConversationService.IsMember(msg.ConversationID, ctx.UserID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.New("not a member of this conversation")
	}
	ctx.Hub.JoinConversation(ctx.Session, msg.ConversationID)
	return nil
}

// MessageLeaveConversation unsubscribes the session from a conversation
// channel when the client closes the view.
type MessageLeaveConversation struct {
	ConversationID uint `json:"conversation_id"`
}

func (msg *MessageLeaveConversation) GetType() string {
	return "leave-conversation"
}

func (msg *MessageLeaveConversation) Process(ctx *MessageContext) error {
	ctx.Hub.LeaveConversation(ctx.Session, msg.ConversationID)
	return nil
}

// MessageTyping relays a typing indicator. Never persisted, no delivery or
// ordering guarantee.
type MessageTyping struct {
	ConversationID uint `json:"conversation_id"`
	IsTyping       bool `json:"is_typing"`
}

func (msg *MessageTyping) GetType() string {
	return "typing"
}

func (msg *MessageTyping) Process(ctx *MessageContext) error {
	if msg.ConversationID == 0 {
		return errors.New("conversation_id is required")
	}
	isMember, err := ctx.ConversationService.IsMember(msg.ConversationID, ctx.UserID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.New("not a member of this conversation")
	}
	ctx.Hub.PublishTyping(msg.ConversationID, ctx.UserID, msg.IsTyping)
	return nil
}

// MessageMarkRead persists a conversation-wide read marker from a live
// session; the read receipt fans out from the service.
type MessageMarkRead struct {
	ConversationID uint `json:"conversation_id"`
}

func (msg *MessageMarkRead) GetType() string {
	return "mark-read"
}

func (msg *MessageMarkRead) Process(ctx *MessageContext) error {
	if msg.ConversationID == 0 {
		return errors.New("conversation_id is required")
	}
	_, err := ctx.MessageService.MarkConversationRead(msg.ConversationID, ctx.UserID)
	return err
}
