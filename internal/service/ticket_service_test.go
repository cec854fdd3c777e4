package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/pkg/id"
)

var _ = Describe("TicketService", func() {
	var (
		ctx        context.Context
		svc        *service.TicketService
		tickets    *memTickets
		experts    *memExperts
		dispatcher *recordingDispatcher
		metrics    *observability.Metrics
		manager    service.Caller
		customer   service.Caller
	)

	const (
		e1 = int64(101)
		e2 = int64(102)
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())

		tickets = newMemTickets()
		expertises := newMemExpertises("COMPUTER", "APPLIANCES")
		experts = newMemExperts(expertises,
			domain.Expert{ID: e1, Email: "e1@desk.io", Expertises: []string{"COMPUTER"}},
			domain.Expert{ID: e2, Email: "e2@desk.io", Expertises: []string{"COMPUTER"}},
		)
		dispatcher = newRecordingDispatcher()
		metrics = observability.NewMetrics()
		svc = service.NewTicketService(service.TicketDependencies{
			TicketRepo:    tickets,
			ProfileRepo:   newMemProfiles(domain.Profile{Email: "cust@desk.io", Role: domain.RoleCustomer}),
			ProductRepo:   newMemProducts(domain.Product{ID: "8001234567890", Name: "Laptop"}),
			ExpertRepo:    experts,
			ExpertiseRepo: expertises,
			Dispatcher:    dispatcher,
			Metrics:       metrics,
		})
		manager = service.Caller{Role: domain.RoleManager, Email: "boss@desk.io"}
		customer = service.Caller{Role: domain.RoleCustomer, Email: "cust@desk.io"}
	})

	create := func() *domain.Ticket {
		ticket, err := svc.CreateTicket(ctx, customer, service.TicketCreateInput{
			ProfileEmail:   "cust@desk.io",
			ProductID:      "8001234567890",
			ExpertiseField: "COMPUTER",
			Obj:            "  Broken screen ",
			Arg:            "It flickers",
		})
		Expect(err).NotTo(HaveOccurred())
		return ticket
	}

	status := func(t *domain.Ticket) domain.Status {
		cur, ok := t.CurrentStatus()
		Expect(ok).To(BeTrue())
		return cur.Status
	}

	Describe("CreateTicket", func() {
		It("opens a ticket with priority to assign", func() {
			ticket := create()
			Expect(ticket.Obj).To(Equal("Broken screen"))
			Expect(ticket.Priority).To(Equal(domain.PriorityToAssign))
			Expect(ticket.History).To(HaveLen(1))
			Expect(status(ticket)).To(Equal(domain.StatusOpen))
			Expect(ticket.History[0].Role).To(Equal(domain.RoleCustomer))
			Expect(tickets.createCalls).To(Equal(1))
			Expect(dispatcher.types()).To(Equal([]events.EventType{events.EventTicketCreated}))
		})

		DescribeTable("rejects unknown references without persisting",
			func(input service.TicketCreateInput, expected error) {
				_, err := svc.CreateTicket(ctx, customer, input)
				Expect(errors.Is(err, expected)).To(BeTrue(), "got %v", err)
				Expect(tickets.createCalls).To(BeZero())
				Expect(dispatcher.published).To(BeEmpty())
			},
			Entry("profile", service.TicketCreateInput{ProfileEmail: "ghost@desk.io", ProductID: "8001234567890", ExpertiseField: "COMPUTER"}, domain.ErrProfileNotFound),
			Entry("product", service.TicketCreateInput{ProfileEmail: "cust@desk.io", ProductID: "0000000000000", ExpertiseField: "COMPUTER"}, domain.ErrProductNotFound),
			Entry("expertise", service.TicketCreateInput{ProfileEmail: "cust@desk.io", ProductID: "8001234567890", ExpertiseField: "PLUMBING"}, domain.ErrExpertiseNotFound),
		)
	})

	Describe("SetTicketStatus", func() {
		It("walks the full lifecycle and checks the current status each time", func() {
			ticket := create()

			updated, err := svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(e1), Priority: ptr(domain.PriorityHigh),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Priority).To(Equal(domain.PriorityHigh))
			Expect(*updated.ExpertID).To(Equal(e1))
			Expect(*updated.History[1].ExpertID).To(Equal(e1))
			Expect(updated.History[1].Role).To(Equal(domain.RoleManager))

			_, err = svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{Target: domain.StatusResolved})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.SetTicketStatus(ctx, customer, ticket.ID, service.StatusChangeInput{Target: domain.StatusReopened})
			Expect(err).NotTo(HaveOccurred())

			updated, err = svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(e2), Priority: ptr(domain.PriorityLow),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Priority).To(Equal(domain.PriorityLow))
			Expect(*updated.ExpertID).To(Equal(e2))

			_, err = svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{Target: domain.StatusClosed})
			Expect(errors.Is(err, domain.ErrIllegalStatusChange)).To(BeTrue())

			stored, err := svc.GetTicket(ctx, manager, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.History).To(HaveLen(5))
			Expect(status(stored)).To(Equal(domain.StatusInProgress))
			Expect(metrics.Snapshot().Transitions).To(HaveKeyWithValue("OPEN->IN_PROGRESS", int64(1)))
		})

		It("reports a missing ticket", func() {
			_, err := svc.SetTicketStatus(ctx, manager, 999, service.StatusChangeInput{Target: domain.StatusClosed})
			Expect(errors.Is(err, domain.ErrTicketNotFound)).To(BeTrue())
		})

		It("reports a missing expert and leaves the ticket alone", func() {
			ticket := create()
			_, err := svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(int64(404)), Priority: ptr(domain.PriorityHigh),
			})
			Expect(errors.Is(err, domain.ErrExpertNotFound)).To(BeTrue())

			stored, _ := svc.GetTicket(ctx, manager, ticket.ID)
			Expect(stored.History).To(HaveLen(1))
			Expect(stored.Priority).To(Equal(domain.PriorityToAssign))
			Expect(stored.ExpertID).To(BeNil())
		})

		It("checks the table before the expert", func() {
			ticket := create()
			_, err := svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(e1), Priority: ptr(domain.PriorityHigh),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(int64(404)),
			})
			Expect(errors.Is(err, domain.ErrIllegalStatusChange)).To(BeTrue())
		})

		DescribeTable("rejects priorities that can't be assigned",
			func(priority *domain.Priority) {
				ticket := create()
				_, err := svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
					Target: domain.StatusInProgress, ExpertID: ptr(e1), Priority: priority,
				})
				Expect(errors.Is(err, domain.ErrIllegalPriority)).To(BeTrue())
			},
			Entry("missing", nil),
			Entry("to assign", ptr(domain.PriorityToAssign)),
		)

		It("publishes status, assignment and priority events", func() {
			ticket := create()
			_, err := svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(e1), Priority: ptr(domain.PriorityMedium),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(dispatcher.types()).To(Equal([]events.EventType{
				events.EventTicketCreated,
				events.EventTicketStatusChanged,
				events.EventTicketAssigned,
				events.EventTicketPriorityChanged,
			}))
			Expect(dispatcher.published[1].Actor.Role).To(Equal(domain.RoleManager))
			Expect(dispatcher.published[1].ID).NotTo(BeEmpty())
		})

		It("records role unknown for internal callers", func() {
			ticket := create()
			updated, err := svc.SetTicketStatus(ctx, service.Caller{}, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(e1), Priority: ptr(domain.PriorityLow),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.History[1].Role).To(Equal(domain.RoleUnknown))
		})

		It("forbids customers from touching other tickets", func() {
			ticket := create()
			other := service.Caller{Role: domain.RoleCustomer, Email: "other@desk.io"}
			_, err := svc.SetTicketStatus(ctx, other, ticket.ID, service.StatusChangeInput{Target: domain.StatusClosed})
			Expect(err).To(MatchError(ContainSubstring("not accessible")))
		})
	})

	Describe("SetPriority", func() {
		It("overrides priority without touching history", func() {
			ticket := create()
			updated, err := svc.SetPriority(ctx, manager, ticket.ID, domain.PriorityHigh)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Priority).To(Equal(domain.PriorityHigh))
			Expect(updated.History).To(HaveLen(1))
			payload := dispatcher.published[len(dispatcher.published)-1].Payload.(events.TicketPriorityChangedPayload)
			Expect(payload.Override).To(BeTrue())
		})

		It("rejects unknown priorities before loading the ticket", func() {
			_, err := svc.SetPriority(ctx, manager, 1, domain.Priority("URGENT"))
			Expect(errors.Is(err, domain.ErrIllegalPriority)).To(BeTrue())
			Expect(tickets.updateCalls).To(BeZero())
		})

		It("reports a missing ticket", func() {
			_, err := svc.SetPriority(ctx, manager, 999, domain.PriorityLow)
			Expect(errors.Is(err, domain.ErrTicketNotFound)).To(BeTrue())
		})
	})

	Describe("listing", func() {
		It("scopes customers to their own tickets", func() {
			create()
			other := "other@desk.io"
			res, err := svc.ListTickets(ctx, customer, service.TicketListFilter{ProfileEmail: &other})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Total).To(Equal(1))
			Expect(*tickets.lastFilter.ProfileEmail).To(Equal("cust@desk.io"))
		})

		It("filters by current status", func() {
			first := create()
			create()
			_, err := svc.SetTicketStatus(ctx, manager, first.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(e1), Priority: ptr(domain.PriorityLow),
			})
			Expect(err).NotTo(HaveOccurred())

			res, err := svc.ListTickets(ctx, manager, service.TicketListFilter{Statuses: []domain.Status{domain.StatusInProgress}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Items).To(HaveLen(1))
			Expect(res.Items[0].ID).To(Equal(first.ID))
		})

		It("lists by profile and rejects unknown profiles", func() {
			create()
			res, err := svc.ListTicketsByProfile(ctx, manager, "cust@desk.io", service.PageRequest{Size: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Items).To(HaveLen(1))

			_, err = svc.ListTicketsByProfile(ctx, manager, "ghost@desk.io", service.PageRequest{})
			Expect(errors.Is(err, domain.ErrProfileNotFound)).To(BeTrue())
		})

		It("returns history in insertion order", func() {
			ticket := create()
			_, err := svc.SetTicketStatus(ctx, manager, ticket.ID, service.StatusChangeInput{
				Target: domain.StatusInProgress, ExpertID: ptr(e1), Priority: ptr(domain.PriorityLow),
			})
			Expect(err).NotTo(HaveOccurred())

			history, err := svc.History(ctx, customer, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].Status).To(Equal(domain.StatusOpen))
			Expect(history[1].Status).To(Equal(domain.StatusInProgress))
		})
	})
})
