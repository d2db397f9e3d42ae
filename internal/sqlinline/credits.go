package sqlinline

const QReserveCredit = `--sql 275df466-7648-42ef-9a9d-2039933ec91d
with debited as (
    update credit_accounts
    set credits_remaining = credits_remaining - 1,
        updated_at = now()
    where user_id = $1::text
      and credits_remaining > 0
    returning user_id, credits_remaining
),
entry as (
    insert into credit_entries (user_id, delta, reason, reference, balance_after)
    select user_id, -1, 'reserve', $2::text, credits_remaining
    from debited
    returning balance_after
)
select balance_after from entry;
`

const QRefundCredit = `--sql 52e2d5f9-c42f-4779-a651-f1a729295db1
with credited as (
    update credit_accounts
    set credits_remaining = credits_remaining + $2::int,
        updated_at = now()
    where user_id = $1::text
    returning user_id, credits_remaining
),
entry as (
    insert into credit_entries (user_id, delta, reason, reference, balance_after)
    select user_id, $2::int, 'refund', $3::text, credits_remaining
    from credited
    returning balance_after
)
select balance_after from entry;
`

const QRefillCredits = `--sql f9b25a13-fc37-4441-863a-a04ee014e16d
with refilled as (
    insert into credit_accounts (user_id, credits_remaining, created_at, updated_at)
    values ($1::text, $2::int, now(), now())
    on conflict (user_id) do update set
        credits_remaining = credit_accounts.credits_remaining + excluded.credits_remaining,
        updated_at = now()
    returning user_id, credits_remaining
),
entry as (
    insert into credit_entries (user_id, delta, reason, reference, balance_after)
    select user_id, $2::int, 'refill', $3::text, credits_remaining
    from refilled
    returning balance_after
)
select balance_after from entry;
`

const QUpsertSubscription = `--sql ec3ad522-c376-437b-adf6-f41a091856bc
insert into credit_accounts (user_id, tier, status, subscription_id, renews_at, created_at, updated_at)
values (
    $1::text,
    coalesce(nullif($2::text, ''), 'free'),
    coalesce(nullif($3::text, ''), 'active'),
    nullif($4::text, ''),
    $5::timestamptz,
    now(),
    now()
)
on conflict (user_id) do update set
    tier = coalesce(nullif($2::text, ''), credit_accounts.tier),
    status = coalesce(nullif($3::text, ''), credit_accounts.status),
    subscription_id = coalesce(nullif($4::text, ''), credit_accounts.subscription_id),
    renews_at = coalesce($5::timestamptz, credit_accounts.renews_at),
    updated_at = now()
returning user_id, tier, credits_remaining, status, coalesce(subscription_id, ''), renews_at, created_at, updated_at;
`

const QSelectCreditAccount = `--sql 69eb4df3-36bd-49d2-b6bb-9cf6f82af8c1
select user_id, tier, credits_remaining, status, coalesce(subscription_id, ''), renews_at, created_at, updated_at
from credit_accounts
where user_id = $1::text
limit 1;
`

const QListCreditEntries = `--sql 9d54725c-a5ef-4c31-af66-8a735d5d2665
select id, user_id, delta, reason, reference, balance_after, created_at
from credit_entries
where user_id = $1::text
order by created_at desc
limit $2::int;
`
