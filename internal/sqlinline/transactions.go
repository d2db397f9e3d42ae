package sqlinline

const QInsertTransaction = `--sql 115f6907-32dd-4b5b-932c-75d2e2d6c4d3
insert into transactions (id, event_type, status, amount, currency, custom_data, raw_payload, song_id, purchase_id, error, created_at, updated_at)
values (
    $1::text,
    $2::text,
    $3::text,
    $4::bigint,
    $5::text,
    coalesce($6::jsonb, '{}'::jsonb),
    $7::jsonb,
    nullif($8::text, ''),
    nullif($9::text, ''),
    coalesce($10::text, ''),
    now(),
    now()
)
on conflict (id) do nothing
returning id;
`

const QAnnotateTransaction = `--sql 98aacc07-2576-44ff-a178-9c2daad50e46
update transactions
set status = coalesce(nullif($2::text, ''), status),
    assigned_song_id = coalesce(nullif($3::text, ''), assigned_song_id),
    error = case when $4::text = '' then error else $4::text end,
    updated_at = now()
where id = $1::text;
`

const QSelectTransactionByID = `--sql 4619806e-32c3-416f-8c99-53bee912086b
select id, event_type, status, amount, currency, custom_data, raw_payload, coalesce(song_id, ''), coalesce(purchase_id, ''), coalesce(assigned_song_id, ''), error, created_at, updated_at
from transactions
where id = $1::text
limit 1;
`
