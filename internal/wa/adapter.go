package wa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/matheus3301/botpanel/internal/protocol"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

// DeviceName is shown in the phone's linked devices list.
const DeviceName = "botpanel"

// Adapter implements protocol.Client on top of whatsmeow.
type Adapter struct {
	mu        sync.Mutex
	client    *whatsmeow.Client
	container *sqlstore.Container
	events    *EventHandler
	handler   protocol.Handler
	qrCancel  context.CancelFunc

	logger *zap.Logger
	waLog  waLog.Logger
}

var _ protocol.Client = (*Adapter)(nil)

// NewAdapter opens the whatsmeow device store at dbPath. readyTimeout bounds
// the wait for the offline sync before Ready is reported anyway.
func NewAdapter(ctx context.Context, dbPath string, readyTimeout time.Duration, logger *zap.Logger) (*Adapter, error) {
	wastore.SetOSInfo(DeviceName, [3]uint32{0, 1, 0})

	wl := NewLogger(logger.Named("whatsmeow"))
	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", dbPath),
		wl.Sub("store"),
	)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	a := &Adapter{container: container, logger: logger, waLog: wl}
	a.events = NewEventHandler(a.dispatch, a.identity, readyTimeout, logger)
	a.events.onLoggedOut = a.resetDevice
	a.client = a.newClient(device)
	return a, nil
}

func (a *Adapter) newClient(device *wastore.Device) *whatsmeow.Client {
	client := whatsmeow.NewClient(device, a.waLog.Sub("client"))
	client.AddEventHandler(a.events.Handle)
	return client
}

func (a *Adapter) current() *whatsmeow.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// SetHandler installs the protocol event sink.
func (a *Adapter) SetHandler(h protocol.Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

func (a *Adapter) dispatch(evt protocol.Event) {
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h != nil {
		h(evt)
	}
}

func (a *Adapter) identity() Identity {
	client := a.current()
	var id Identity
	if client.Store.ID != nil {
		id.JID = *client.Store.ID
	}
	id.LID = client.Store.LID
	id.PushName = client.Store.PushName
	return id
}

// Start connects. Without stored credentials the QR pairing flow starts and
// every code is emitted as a ScanEvent.
func (a *Adapter) Start(context.Context) error {
	client := a.current()
	if client.IsConnected() {
		return nil
	}

	if client.Store.ID == nil {
		qrCtx, cancel := context.WithCancel(context.Background())
		ch, err := client.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("get QR channel: %w", err)
		}
		a.mu.Lock()
		a.qrCancel = cancel
		a.mu.Unlock()
		go a.pumpQR(ch)
	}

	a.logger.Info("connecting to WhatsApp")
	if err := client.Connect(); err != nil {
		a.cancelQR()
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (a *Adapter) pumpQR(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			a.dispatch(protocol.ScanEvent{Payload: item.Code, Status: protocol.ScanWaiting})
		case whatsmeow.QRChannelSuccess.Event:
			a.dispatch(protocol.ScanEvent{Status: protocol.ScanConfirmed})
		case whatsmeow.QRChannelTimeout.Event:
			a.dispatch(protocol.ScanEvent{Status: protocol.ScanTimeout})
		case whatsmeow.QRChannelEventError:
			a.dispatch(protocol.ErrorEvent{Err: fmt.Errorf("pairing: %w", item.Error)})
		default:
			a.dispatch(protocol.ErrorEvent{Err: fmt.Errorf("pairing: %s", item.Event)})
		}
	}
}

func (a *Adapter) cancelQR() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.qrCancel != nil {
		a.qrCancel()
		a.qrCancel = nil
	}
}

// Stop disconnects, keeping the credentials.
func (a *Adapter) Stop(context.Context) error {
	a.events.ExpectDisconnect()
	a.cancelQR()
	a.logger.Info("disconnecting from WhatsApp")
	a.current().Disconnect()
	return nil
}

// Logout unlinks the device and prepares a fresh one for the next pairing.
func (a *Adapter) Logout(ctx context.Context) error {
	client := a.current()
	if client.Store.ID == nil {
		return nil
	}
	a.events.ExpectDisconnect()

	var err error
	if client.IsConnected() {
		err = client.Logout(ctx)
	} else {
		err = client.Store.Delete(ctx)
	}
	a.resetDevice()
	return err
}

// resetDevice swaps in a brand new device so Start can pair again.
func (a *Adapter) resetDevice() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client.Disconnect()
	a.client = a.newClient(a.container.NewDevice())
}

// HasCredentials reports whether a paired device is stored, so Start can
// reconnect without a QR scan.
func (a *Adapter) HasCredentials() bool {
	return a.current().Store.ID != nil
}

// IsLoggedIn reports an authenticated, connected session.
func (a *Adapter) IsLoggedIn() bool {
	return a.current().IsLoggedIn()
}

// FindAllContacts lists the address book of the device store.
func (a *Adapter) FindAllContacts(ctx context.Context) ([]protocol.Contact, error) {
	client := a.current()
	all, err := client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}

	contacts := make([]protocol.Contact, 0, len(all))
	jids := make([]types.JID, 0, len(all))
	for jid, info := range all {
		if jid.Server != types.DefaultUserServer {
			continue
		}
		contacts = append(contacts, contactFromInfo(jid, info))
		jids = append(jids, jid)
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })

	a.fillSignatures(ctx, client, jids, contacts)
	return contacts, nil
}

// fillSignatures copies each user's "about" text into Signature. Failures
// leave signatures empty.
func (a *Adapter) fillSignatures(ctx context.Context, client *whatsmeow.Client, jids []types.JID, contacts []protocol.Contact) {
	if len(jids) == 0 || !client.IsLoggedIn() {
		return
	}
	infos, err := client.GetUserInfo(ctx, jids)
	if err != nil {
		a.logger.Debug("user info unavailable", zap.Error(err))
		return
	}
	for i := range contacts {
		jid, err := types.ParseJID(contacts[i].ID)
		if err != nil {
			continue
		}
		if info, ok := infos[jid]; ok {
			contacts[i].Signature = info.Status
		}
	}
}

func contactFromInfo(jid types.JID, info types.ContactInfo) protocol.Contact {
	name := info.FullName
	for _, candidate := range []string{info.PushName, info.BusinessName, jid.User} {
		if name != "" {
			break
		}
		name = candidate
	}
	return protocol.Contact{
		ID:     jid.ToNonAD().String(),
		Name:   name,
		Friend: info.FullName != "",
		Alias:  info.FullName,
		// The network does not expose gender.
		Gender: protocol.GenderFemale,
	}
}

// FindAllRooms lists the groups the account participates in.
func (a *Adapter) FindAllRooms(ctx context.Context) ([]protocol.Room, error) {
	groups, err := a.current().GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("get joined groups: %w", err)
	}
	rooms := make([]protocol.Room, 0, len(groups))
	for _, g := range groups {
		rooms = append(rooms, roomFromGroup(g))
	}
	return rooms, nil
}

func roomFromGroup(g *types.GroupInfo) protocol.Room {
	members := make([]string, 0, len(g.Participants))
	for _, p := range g.Participants {
		members = append(members, p.JID.ToNonAD().String())
	}
	return protocol.Room{ID: g.JID.String(), Name: g.Name, Members: members}
}

// Avatar returns the profile picture URL of userID, empty when unset.
func (a *Adapter) Avatar(ctx context.Context, userID string) (string, error) {
	jid, err := types.ParseJID(userID)
	if err != nil {
		return "", fmt.Errorf("parse JID: %w", err)
	}
	info, err := a.current().GetProfilePictureInfo(ctx, jid, &whatsmeow.GetProfilePictureParams{})
	if errors.Is(err, whatsmeow.ErrProfilePictureNotSet) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("profile picture: %w", err)
	}
	if info == nil {
		return "", nil
	}
	return info.URL, nil
}

// SendText sends a plain text message to chatID.
func (a *Adapter) SendText(ctx context.Context, chatID, text string) error {
	to, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("parse JID: %w", err)
	}
	if _, err := a.current().SendMessage(ctx, to, &waE2E.Message{
		Conversation: proto.String(text),
	}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Close releases the device store.
func (a *Adapter) Close() error {
	a.cancelQR()
	return a.container.Close()
}
